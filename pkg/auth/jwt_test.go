package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", "consultorio-api", time.Hour)
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(userID, "recepcao", "reception")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "recepcao", claims.Subject)
	assert.Equal(t, "reception", claims.Role)
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService("secret", "consultorio-api", time.Hour)
	token, _, err := svc.GenerateAccessToken(uuid.New(), "admin", "admin")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService("other", "consultorio-api", time.Hour)
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService("secret", "someone-else", time.Hour)
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := svc.(*jwtService)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewJWTService("secret", "", time.Hour).ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
