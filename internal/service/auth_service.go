package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/auth"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/outbox"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/repository"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const userEventsTopic = "user_events"

type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	GetUserInfo(ctx context.Context, id string) (*domain.User, error)
}

type authService struct {
	pool       TxBeginner
	userRepo   repository.UserRepository
	outboxRepo outbox.Repository
	tokens     *auth.TokenManager
	passwords  auth.PasswordValidator
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewAuthService(
	pool TxBeginner,
	userRepo repository.UserRepository,
	outboxRepo outbox.Repository,
	tokens *auth.TokenManager,
	passwords auth.PasswordValidator,
	logger *zap.Logger,
) AuthService {
	return &authService{
		pool:       pool,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		tokens:     tokens,
		passwords:  passwords,
		logger:     logger,
		tracer:     otel.Tracer("auth_service"),
	}
}

func (s *authService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if err := s.passwords.ValidatePassword(password); err != nil {
		return nil, &domain.ValidationError{Reason: err.Error()}
	}

	hashedPass, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error hashing password", zap.Error(err))
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		rollbackCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(rollbackCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(rollbackCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPass),
	}

	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}

		mylogger.Error(ctx, s.logger, "Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"event": "UserRegistered",
		"payload": domain.UserRegisteredEvent{
			UserID: user.ID,
			Email:  user.Email,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := &outbox.Event{
		AggregateType: "User",
		AggregateID:   user.ID,
		EventType:     "UserRegistered",
		Payload:       payload,
		Topic:         userEventsTopic,
	}

	if err := s.outboxRepo.Save(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(ctx, s.logger, "User registered", zap.String("user_id", user.ID))

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", "", ErrInvalidCredentials
		}

		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.tokens.GenerateTokens(user.ID)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to generate tokens", zap.Error(err))
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (s *authService) GetUserInfo(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.GetUserInfo")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, &domain.NotFoundError{Resource: "user", ID: id}
		}

		return nil, err
	}

	return user, nil
}
