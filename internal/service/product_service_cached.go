package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// cachedProductService decorates ProductService with a redis read cache.
// Cache round-trips go through a circuit breaker: when redis misbehaves
// the breaker opens and reads degrade to the underlying store instead of
// failing the request.
type cachedProductService struct {
	next        ProductService
	redisClient *redis.Client
	cacheTTL    time.Duration
	cb          *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

func NewCachedProductService(next ProductService, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) ProductService {
	settings := gobreaker.Settings{
		Name:        "ProductCache",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &cachedProductService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		cb:          gobreaker.NewCircuitBreaker(settings),
		logger:      logger,
	}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func (s *cachedProductService) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	key := productKey(id)

	cached, err := s.cb.Execute(func() (interface{}, error) {
		return s.redisClient.Get(ctx, key).Result()
	})
	if err == nil {
		var product domain.Product
		if jsonErr := json.Unmarshal([]byte(cached.(string)), &product); jsonErr == nil {
			return &product, nil
		}
	}

	product, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(product); jsonErr == nil {
		_, _ = s.cb.Execute(func() (interface{}, error) {
			return nil, s.redisClient.Set(ctx, key, data, s.cacheTTL).Err()
		})
	}

	return product, nil
}

func (s *cachedProductService) Create(ctx context.Context, product *domain.Product) (string, error) {
	return s.next.Create(ctx, product)
}

func (s *cachedProductService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	return s.next.List(ctx, limit, offset, search)
}

func (s *cachedProductService) Update(ctx context.Context, id string, input *domain.UpdateProductInput) error {
	if err := s.next.Update(ctx, id, input); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *cachedProductService) Delete(ctx context.Context, id string) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *cachedProductService) invalidate(ctx context.Context, id string) {
	_, _ = s.cb.Execute(func() (interface{}, error) {
		return nil, s.redisClient.Del(ctx, productKey(id)).Err()
	})
}
