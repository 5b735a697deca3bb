package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhive/studyhive/internal/handlers"
	"github.com/studyhive/studyhive/internal/models"
	"github.com/studyhive/studyhive/internal/repositories"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

func TestMe_Success(t *testing.T) {
	handler := handlers.NewUserHandler(&handlers.MockUserService{})
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/me", nil)
	req = handlers.WithAuthContext(req, handlers.TestUser("user123"))

	w := httptest.NewRecorder()
	handler.Me(w, req)

	envelope := handlers.DecodeEnvelope(t, w, http.StatusOK)
	assert.Equal(t, pkghttp.StatusSuccess, envelope.Status)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user123", user["id"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "tokenGeneration")
}

func TestMe_NoAuthContext(t *testing.T) {
	handler := handlers.NewUserHandler(&handlers.MockUserService{})
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/me", nil)

	w := httptest.NewRecorder()
	handler.Me(w, req)

	handlers.DecodeEnvelope(t, w, http.StatusUnauthorized)
}

func TestGetUser_Success(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		GetUserByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			assert.Equal(t, "user456", id)
			return handlers.TestUser("user456"), nil
		},
	}

	handler := handlers.NewUserHandler(mockUsers)
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/user456", nil)
	req = handlers.WithURLParam(req, "id", "user456")

	w := httptest.NewRecorder()
	handler.GetUser(w, req)

	envelope := handlers.DecodeEnvelope(t, w, http.StatusOK)
	assert.Equal(t, pkghttp.StatusSuccess, envelope.Status)
}

func TestGetUser_NotFound(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		GetUserByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}

	handler := handlers.NewUserHandler(mockUsers)
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/ghost", nil)
	req = handlers.WithURLParam(req, "id", "ghost")

	w := httptest.NewRecorder()
	handler.GetUser(w, req)

	envelope := handlers.DecodeEnvelope(t, w, http.StatusNotFound)
	assert.Equal(t, "No user found with that ID", envelope.Message)
}

func TestListUsers_PassesFilters(t *testing.T) {
	var gotFilter repositories.UserFilter
	mockUsers := &handlers.MockUserService{
		ListUsersFunc: func(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error) {
			gotFilter = filter
			return []*models.User{handlers.TestUser("user123")}, nil
		},
	}

	handler := handlers.NewUserHandler(mockUsers)
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users?role=tutor&subject=physics&studyMode=true", nil)

	w := httptest.NewRecorder()
	handler.ListUsers(w, req)

	envelope := handlers.DecodeEnvelope(t, w, http.StatusOK)
	assert.Equal(t, pkghttp.StatusSuccess, envelope.Status)
	assert.Equal(t, models.RoleTutor, gotFilter.Role)
	assert.Equal(t, "physics", gotFilter.Subject)
	require.NotNil(t, gotFilter.StudyMode)
	assert.True(t, *gotFilter.StudyMode)
}

func TestListUsers_BadStudyMode(t *testing.T) {
	handler := handlers.NewUserHandler(&handlers.MockUserService{})
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users?studyMode=maybe", nil)

	w := httptest.NewRecorder()
	handler.ListUsers(w, req)

	handlers.DecodeEnvelope(t, w, http.StatusBadRequest)
}

func TestUpdateMe_Success(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		UpdateProfileFunc: func(ctx context.Context, userID string, update repositories.ProfileUpdate) (*models.User, error) {
			assert.Equal(t, "user123", userID)
			require.NotNil(t, update.Subject)
			assert.Equal(t, "chemistry", *update.Subject)
			return handlers.TestUser(userID), nil
		},
	}

	subject := "chemistry"
	handler := handlers.NewUserHandler(mockUsers)
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/updateMe", handlers.UpdateMeRequest{
		Subject: &subject,
	})
	req = handlers.WithAuthContext(req, handlers.TestUser("user123"))

	w := httptest.NewRecorder()
	handler.UpdateMe(w, req)

	handlers.DecodeEnvelope(t, w, http.StatusOK)
}

func TestUpdateMe_RejectsPasswordField(t *testing.T) {
	handler := handlers.NewUserHandler(&handlers.MockUserService{})
	password := "NewPassword456!"
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/updateMe", handlers.UpdateMeRequest{
		Password: &password,
	})
	req = handlers.WithAuthContext(req, handlers.TestUser("user123"))

	w := httptest.NewRecorder()
	handler.UpdateMe(w, req)

	envelope := handlers.DecodeEnvelope(t, w, http.StatusBadRequest)
	assert.Equal(t, "This route is not for password updates. Please use /updatePassword", envelope.Message)
}

func TestUpdateMe_InvalidExperienceLevel(t *testing.T) {
	handler := handlers.NewUserHandler(&handlers.MockUserService{})
	level := "grandmaster"
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/updateMe", handlers.UpdateMeRequest{
		ExperienceLevel: &level,
	})
	req = handlers.WithAuthContext(req, handlers.TestUser("user123"))

	w := httptest.NewRecorder()
	handler.UpdateMe(w, req)

	handlers.DecodeEnvelope(t, w, http.StatusBadRequest)
}
