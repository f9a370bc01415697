package service

import (
	"testing"
	"time"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/auth"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/outbox"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/repository"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/testsuite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type AuthServiceIntegrationSuite struct {
	testsuite.BaseSuite

	svc    AuthService
	tokens *auth.TokenManager
}

func TestAuthServiceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(AuthServiceIntegrationSuite))
}

func (s *AuthServiceIntegrationSuite) SetupSuite() {
	s.SetupInfrastructure("../../migrations")

	logger := zap.NewNop()
	s.tokens = auth.NewTokenManager("test-access", "test-refresh", 15*time.Minute, time.Hour)
	s.svc = NewAuthService(
		s.DbPool,
		repository.NewUserRepository(s.DbPool, logger),
		outbox.NewRepository(s.DbPool, logger),
		s.tokens,
		auth.NewPasswordValidator(),
		logger,
	)
}

func (s *AuthServiceIntegrationSuite) TearDownSuite() {
	s.TearDownInfrastructure()
}

func (s *AuthServiceIntegrationSuite) SetupTest() {
	s.TruncateTable("outbox")
	s.TruncateTable("users")
}

func (s *AuthServiceIntegrationSuite) TestRegisterAndLogin() {
	user, err := s.svc.Register(s.Ctx, "alice@example.com", "Alice", "password123")
	s.Require().NoError(err)
	s.NotEmpty(user.ID)
	s.NotEqual("password123", user.PasswordHash)

	// The registration event commits together with the user row.
	var count int
	err = s.DbPool.QueryRow(s.Ctx, `
		SELECT COUNT(*) FROM outbox
		WHERE event_type = 'UserRegistered' AND aggregate_id = $1
	`, user.ID).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)

	accessToken, refreshToken, err := s.svc.Login(s.Ctx, "alice@example.com", "password123")
	s.Require().NoError(err)
	s.NotEmpty(refreshToken)

	claims, err := s.tokens.ValidateToken(accessToken, false)
	s.Require().NoError(err)
	s.Equal(user.ID, claims.UserID)
}

func (s *AuthServiceIntegrationSuite) TestRegisterRejectsDuplicateEmail() {
	_, err := s.svc.Register(s.Ctx, "bob@example.com", "Bob", "password123")
	s.Require().NoError(err)

	_, err = s.svc.Register(s.Ctx, "bob@example.com", "Other Bob", "password456")
	s.Require().ErrorIs(err, repository.ErrUserAlreadyExists)
}

func (s *AuthServiceIntegrationSuite) TestRegisterRejectsWeakPassword() {
	_, err := s.svc.Register(s.Ctx, "carol@example.com", "Carol", "short")

	var validationErr *domain.ValidationError
	s.Require().ErrorAs(err, &validationErr)

	var count int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	s.Zero(count)
}

func (s *AuthServiceIntegrationSuite) TestLoginRejectsWrongPassword() {
	_, err := s.svc.Register(s.Ctx, "dave@example.com", "Dave", "password123")
	s.Require().NoError(err)

	_, _, err = s.svc.Login(s.Ctx, "dave@example.com", "wrongpassword1")
	s.Require().ErrorIs(err, ErrInvalidCredentials)

	_, _, err = s.svc.Login(s.Ctx, "nobody@example.com", "password123")
	s.Require().ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceIntegrationSuite) TestGetUserInfo() {
	user, err := s.svc.Register(s.Ctx, "erin@example.com", "Erin", "password123")
	s.Require().NoError(err)

	found, err := s.svc.GetUserInfo(s.Ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, found.Email)

	_, err = s.svc.GetUserInfo(s.Ctx, "00000000-0000-0000-0000-000000000000")
	var notFound *domain.NotFoundError
	s.Require().ErrorAs(err, &notFound)
}
