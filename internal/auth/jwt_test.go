package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rootedtogether/rooted/internal/models"
)

func gardener(username string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
	}
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	InitJWTKey([]byte("allotment-test-secret"))

	rose := gardener("rosegrower")
	token, expiry, err := GenerateToken(rose)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, rose.ID.String(), claims.UserID)
	assert.Equal(t, "rosegrower", claims.Username)

	userID, err := GetUserIDFromToken(claims)
	require.NoError(t, err)
	assert.Equal(t, rose.ID, userID)
}

func TestGenerateTokenRejectsInvalidUsers(t *testing.T) {
	InitJWTKey([]byte("allotment-test-secret"))

	t.Run("nil user", func(t *testing.T) {
		token, _, err := GenerateToken(nil)
		assert.Error(t, err)
		assert.Empty(t, token)
	})

	t.Run("missing user ID", func(t *testing.T) {
		token, _, err := GenerateToken(&models.User{Username: "fernfan"})
		assert.Error(t, err)
		assert.Empty(t, token)
	})
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	InitJWTKey([]byte("allotment-test-secret"))

	valid, _, err := GenerateToken(gardener("fernfan"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "not.a.valid.jwt.token"},
		{"tampered signature", valid + "tampered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	InitJWTKey([]byte("allotment-test-secret"))
	token, _, err := GenerateToken(gardener("mossmaven"))
	require.NoError(t, err)

	InitJWTKey([]byte("a-different-secret"))
	claims, err := ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestGetUserIDFromTokenBadClaims(t *testing.T) {
	userID, err := GetUserIDFromToken(nil)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, userID)

	userID, err = GetUserIDFromToken(&JWTClaims{UserID: "not-a-uuid", Username: "rosegrower"})
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, userID)
}
