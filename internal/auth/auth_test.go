package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	validator := NewPasswordValidator()

	cases := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "password123", nil},
		{"too short", "pass1", ErrPasswordTooShort},
		{"letters only", "passwordonly", ErrPasswordTooWeak},
		{"digits only", "1234567890", ErrPasswordTooWeak},
		{"exactly eight chars", "abcdefg1", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidatePassword(tc.password)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestTokenManagerRoundTrip(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)
	userID := uuid.NewString()

	accessToken, refreshToken, err := manager.GenerateTokens(userID)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)

	claims, err := manager.ValidateToken(accessToken, false)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	refreshClaims, err := manager.ValidateToken(refreshToken, true)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshClaims.UserID)
}

func TestTokenManagerRejectsCrossUse(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)

	accessToken, refreshToken, err := manager.GenerateTokens(uuid.NewString())
	require.NoError(t, err)

	// Access tokens do not verify against the refresh secret and vice versa.
	_, err = manager.ValidateToken(accessToken, true)
	assert.Error(t, err)

	_, err = manager.ValidateToken(refreshToken, false)
	assert.Error(t, err)
}

func TestTokenManagerRejectsWrongSecret(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)
	other := NewTokenManager("different-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)

	accessToken, _, err := manager.GenerateTokens(uuid.NewString())
	require.NoError(t, err)

	_, err = other.ValidateToken(accessToken, false)
	assert.Error(t, err)
}

func TestTokenManagerRejectsExpired(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", -time.Minute, 720*time.Hour)

	accessToken, _, err := manager.GenerateTokens(uuid.NewString())
	require.NoError(t, err)

	_, err = manager.ValidateToken(accessToken, false)
	assert.Error(t, err)
}

func TestTokenManagerRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)

	_, err := manager.ValidateToken("not.a.token", false)
	assert.Error(t, err)
}
