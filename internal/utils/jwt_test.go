package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	userID := primitive.NewObjectID()

	token, err := GenerateAccessToken(userID, "admin", "a@example.com", "secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)

	claims, err := ValidateToken(token.Token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	userID := primitive.NewObjectID()

	token, err := GenerateAccessToken(userID, "user", "", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken(token.Token, "other")
	assert.Error(t, err)

	expired, err := GenerateAccessToken(userID, "user", "", "secret", -time.Minute)
	require.NoError(t, err)
	// A non-positive ttl falls back to the default lifetime.
	_, err = ValidateToken(expired.Token, "secret")
	assert.NoError(t, err)
}
