package auth

import (
	"testing"
	"time"

	"github.com/studyhive/studyhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-32-characters-long!"
	testRefreshSecret = "refresh-secret-32-characters-lng!"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
}

func testUser() *models.User {
	return &models.User{
		ID:              "user-1",
		Email:           "alice@example.com",
		AuthProvider:    models.ProviderLocal,
		TokenGeneration: 3,
	}
}

func TestTokenManager_AccessRoundTrip(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	tokenString, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tm.ValidateAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, int64(3), claims.TokenGeneration)
	assert.NotEmpty(t, claims.ID)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestTokenManager_RefreshRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	tokenString, err := tm.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := tm.ValidateRefreshToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeRefresh, claims.Type)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestTokenManager_KindsDoNotCross(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	accessToken, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)
	refreshToken, err := tm.GenerateRefreshToken(user)
	require.NoError(t, err)

	// A refresh token must never verify as an access token
	_, err = tm.ValidateAccessToken(refreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// And vice versa
	_, err = tm.ValidateRefreshToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_TamperedToken(t *testing.T) {
	tm := newTestTokenManager()

	tokenString, err := tm.GenerateAccessToken(testUser())
	require.NoError(t, err)

	tampered := tokenString[:len(tokenString)-4] + "AAAA"
	_, err = tm.ValidateAccessToken(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager("other-secret-32-characters-long!!", testRefreshSecret, 15*time.Minute, 24*time.Hour)

	tokenString, err := other.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	tm := NewTokenManager(testAccessSecret, testRefreshSecret, -1*time.Minute, -1*time.Minute)

	tokenString, err := tm.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := newTestTokenManager()

	for _, input := range []string{"", "garbage", "a.b.c"} {
		_, err := tm.ValidateAccessToken(input)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", input)
	}
}

func TestTokenManager_GenerationEmbedded(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	before, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)

	// A logout bumps the persisted counter; tokens minted afterwards carry it
	user.TokenGeneration++
	after, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)

	beforeClaims, err := tm.ValidateAccessToken(before)
	require.NoError(t, err)
	afterClaims, err := tm.ValidateAccessToken(after)
	require.NoError(t, err)

	assert.Equal(t, beforeClaims.TokenGeneration+1, afterClaims.TokenGeneration)
}
