package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/models"
	"github.com/studyhive/studyhive/internal/repositories"
	"github.com/studyhive/studyhive/internal/services"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext attaches an authenticated user to the request context,
// the way the gate does after a successful token check
func WithAuthContext(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

// WithURLParam attaches a chi route parameter to the request context
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestUser builds a local user for handler tests
func TestUser(id string) *models.User {
	now := time.Now()
	return &models.User{
		ID:                id,
		Email:             "ada@example.com",
		AuthProvider:      models.ProviderLocal,
		PasswordHash:      "$2a$12$placeholderplaceholderplaceholder",
		PasswordChangedAt: &now,
		Role:              models.RoleStudent,
		Name:              "Ada Lovelace",
		Slug:              "ada-lovelace",
		ExperienceLevel:   models.ExperienceBeginner,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// DecodeEnvelope checks the status code and decodes the response envelope
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) pkghttp.Envelope {
	t.Helper()
	require.Equal(t, expectedStatus, w.Code, "response status mismatch")
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var envelope pkghttp.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	return envelope
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc         func(ctx context.Context, input services.SignupInput) (*services.TokenPair, error)
	LoginFunc          func(ctx context.Context, email, password string) (*services.TokenPair, error)
	FederatedLoginFunc func(ctx context.Context, idToken string) (*services.TokenPair, error)
	RefreshFunc        func(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	LogoutFunc         func(ctx context.Context, userID string) error
	UpdatePasswordFunc func(ctx context.Context, userID, password, passwordConfirm string) (*services.TokenPair, error)
}

func (m *MockAuthService) Signup(ctx context.Context, input services.SignupInput) (*services.TokenPair, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) FederatedLogin(ctx context.Context, idToken string) (*services.TokenPair, error) {
	if m.FederatedLoginFunc != nil {
		return m.FederatedLoginFunc(ctx, idToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, userID)
	}
	return models.ErrInternalServer
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, userID, password, passwordConfirm string) (*services.TokenPair, error) {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, password, passwordConfirm)
	}
	return nil, models.ErrInternalServer
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetUserByIDFunc   func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc     func(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error)
	UpdateProfileFunc func(ctx context.Context, userID string, update repositories.ProfileUpdate) (*models.User, error)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) ListUsers(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, filter, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, update repositories.ProfileUpdate) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, update)
	}
	return nil, models.ErrInternalServer
}

// MockFriendshipService implements FriendshipServiceInterface for testing
type MockFriendshipService struct {
	SendRequestFunc         func(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error)
	AcceptRequestFunc       func(ctx context.Context, recipientID, requesterID string) (*models.Friendship, error)
	UnfriendFunc            func(ctx context.Context, userID, otherID string) error
	ListFriendsFunc         func(ctx context.Context, userID string) ([]*models.Friendship, error)
	ListPendingRequestsFunc func(ctx context.Context, userID string) ([]*models.Friendship, error)
}

func (m *MockFriendshipService) SendRequest(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, requesterID, recipientID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockFriendshipService) AcceptRequest(ctx context.Context, recipientID, requesterID string) (*models.Friendship, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, recipientID, requesterID)
	}
	return nil, models.ErrNotFound
}

func (m *MockFriendshipService) Unfriend(ctx context.Context, userID, otherID string) error {
	if m.UnfriendFunc != nil {
		return m.UnfriendFunc(ctx, userID, otherID)
	}
	return models.ErrNotFound
}

func (m *MockFriendshipService) ListFriends(ctx context.Context, userID string) ([]*models.Friendship, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return []*models.Friendship{}, nil
}

func (m *MockFriendshipService) ListPendingRequests(ctx context.Context, userID string) ([]*models.Friendship, error) {
	if m.ListPendingRequestsFunc != nil {
		return m.ListPendingRequestsFunc(ctx, userID)
	}
	return []*models.Friendship{}, nil
}
