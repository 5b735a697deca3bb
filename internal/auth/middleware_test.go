package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studyhive/studyhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUserRepo implements UserRepository for gate tests
type mockUserRepo struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r)
		require.NotNil(t, user, "user must be in context past the gate")
		w.WriteHeader(http.StatusOK)
	})
}

func doProtected(t *testing.T, tm *TokenManager, repo UserRepository, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rec, req)
	return rec
}

func TestProtect_Success(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	tokenString, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)

	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			assert.Equal(t, user.ID, id)
			return user, nil
		},
	}

	rec := doProtected(t, tm, repo, "Bearer "+tokenString)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtect_MissingHeader(t *testing.T) {
	rec := doProtected(t, newTestTokenManager(), &mockUserRepo{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtect_MalformedHeader(t *testing.T) {
	tm := newTestTokenManager()
	for _, header := range []string{"Bearer", "Basic abc", "bearer token"} {
		rec := doProtected(t, tm, &mockUserRepo{}, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestProtect_InvalidToken(t *testing.T) {
	rec := doProtected(t, newTestTokenManager(), &mockUserRepo{}, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtect_RefreshTokenRejected(t *testing.T) {
	tm := newTestTokenManager()
	refreshToken, err := tm.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	rec := doProtected(t, tm, &mockUserRepo{}, "Bearer "+refreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtect_UserGone(t *testing.T) {
	tm := newTestTokenManager()
	tokenString, err := tm.GenerateAccessToken(testUser())
	require.NoError(t, err)

	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}

	rec := doProtected(t, tm, repo, "Bearer "+tokenString)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtect_RevokedByLogout(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	tokenString, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)

	// Logout bumped the counter after the token was issued
	bumped := *user
	bumped.TokenGeneration = user.TokenGeneration + 1
	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &bumped, nil
		},
	}

	rec := doProtected(t, tm, repo, "Bearer "+tokenString)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtect_StaleAfterPasswordChange(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	tokenString, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)

	changedAt := time.Now().Add(1 * time.Minute)
	rotated := *user
	rotated.PasswordChangedAt = &changedAt
	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &rotated, nil
		},
	}

	rec := doProtected(t, tm, repo, "Bearer "+tokenString)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtect_PasswordChangedBeforeIssue(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	changedAt := time.Now().Add(-1 * time.Hour)
	user.PasswordChangedAt = &changedAt

	tokenString, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)

	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	rec := doProtected(t, tm, repo, "Bearer "+tokenString)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUserFromContext(req))
	assert.Nil(t, GetClaimsFromContext(req))
}
