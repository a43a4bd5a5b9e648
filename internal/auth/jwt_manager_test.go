package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes-only"

func TestNewJWTManager(t *testing.T) {
	jm, err := NewJWTManager(testSecret)
	require.NoError(t, err)
	assert.NotNil(t, jm)

	_, err = NewJWTManager("")
	assert.Error(t, err)
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	jm, err := NewJWTManager(testSecret)
	require.NoError(t, err)
	ctx := context.Background()

	token, expiresAt, err := jm.GenerateToken(ctx, "user-123", "ana@example.com", "Ana", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := jm.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestJWTManager_RejectsInvalidTokens(t *testing.T) {
	jm, err := NewJWTManager(testSecret)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		token, _, err := jm.GenerateToken(ctx, "user-123", "ana@example.com", "Ana", -time.Minute)
		require.NoError(t, err)
		_, err = jm.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTManager("another-secret")
		require.NoError(t, err)
		token, _, err := other.GenerateToken(ctx, "user-123", "ana@example.com", "Ana", time.Hour)
		require.NoError(t, err)
		_, err = jm.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "user-123"})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = jm.ValidateToken(ctx, signed)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := jm.ValidateToken(ctx, "not.a.token")
		assert.Error(t, err)
	})
}
