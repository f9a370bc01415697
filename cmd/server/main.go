package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/auth"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/config"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/kafka"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/outbox"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/repository"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/service"
	transport "github.com/bethel4/Ecommerce-Backend-Repo/internal/transport/http"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/transport/http/handler"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/db"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/utils"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "ecommerce-backend", cfg.Telemetry.Endpoint, cfg.Env)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := db.NewPostgresDB(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	outboxRepo := outbox.NewRepository(pool, logger)

	tokens := auth.NewTokenManager(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
	)

	authService := service.NewAuthService(pool, userRepo, outboxRepo, tokens, auth.NewPasswordValidator(), logger)
	productService := service.NewCachedProductService(
		service.NewProductService(productRepo, logger),
		redisClient,
		cfg.Cache.TTL,
		logger,
	)
	orderService := service.NewOrderService(pool, logger, orderRepo, productRepo, outboxRepo)

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := outbox.NewProcessor(pool, outboxRepo, producer, logger)
	go outboxProcessor.Start(ctx)

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.HTTP.Timeout,
	})
	app.Use(otelfiber.Middleware())

	transport.RegisterRoutes(app, &transport.Handlers{
		Auth:    handler.NewAuthHandler(authService, logger),
		Product: handler.NewProductHandler(productService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
	}, tokens)

	go func() {
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down server")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := producer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close redis client", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
