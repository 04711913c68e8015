package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookswap/internal/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	user := &models.User{
		ID:       uuid.New(),
		Username: "alice",
	}

	token, expiry, err := GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestGenerateTokenInvalidUser(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	_, _, err := GenerateToken(nil)
	assert.Error(t, err)

	_, _, err = GenerateToken(&models.User{Username: "no-id"})
	assert.Error(t, err)
}

func TestValidateTokenFailures(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)

	// Token signed with a different key is rejected
	user := &models.User{ID: uuid.New(), Username: "alice"}
	token, _, err := GenerateToken(user)
	require.NoError(t, err)

	InitJWTKey([]byte("a-different-key"))
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTServiceRoundTrip(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))
	svc := NewJWTService()
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Username: "alice"}

	token, _, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	identity, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "alice", identity.Username)

	// Revoke is a no-op for stateless tokens
	require.NoError(t, svc.Revoke(ctx, token))
	_, err = svc.Verify(ctx, token)
	assert.NoError(t, err)
}
