package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService([]byte("secret"), time.Hour)

	token, err := tokens.Issue(&models.User{ID: 7, Role: models.RoleManager})
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_Rejects(t *testing.T) {
	tokens := NewTokenService([]byte("secret"), time.Hour)
	user := &models.User{ID: 7, Role: models.RoleMember}

	t.Run("expired", func(t *testing.T) {
		issued := NewTokenService([]byte("secret"), time.Minute)
		issued.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := issued.Issue(user)
		require.NoError(t, err)

		_, err = tokens.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenService([]byte("other"), time.Hour).Issue(user)
		require.NoError(t, err)

		_, err = tokens.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: 7}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = tokens.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = tokens.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
