package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/models"
	"github.com/studyhive/studyhive/internal/repositories"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

// UserServiceInterface defines the interface for profile business logic
type UserServiceInterface interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update repositories.ProfileUpdate) (*models.User, error)
}

// UserHandler handles profile-related HTTP requests
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// UserResponse is the public shape of a user. Credential fields never
// appear here.
type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	AuthProvider    string     `json:"authProvider"`
	Role            string     `json:"role"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	ProfileImage    string     `json:"profileImage,omitempty"`
	Subject         string     `json:"subject,omitempty"`
	StudyMode       bool       `json:"studyMode"`
	Availability    string     `json:"availability,omitempty"`
	ExperienceLevel string     `json:"experienceLevel,omitempty"`
	Location        string     `json:"location,omitempty"`
	RatingAverage   *float64   `json:"ratingAverage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		AuthProvider:    user.AuthProvider,
		Role:            user.Role,
		Name:            user.Name,
		Slug:            user.Slug,
		ProfileImage:    user.ProfileImage,
		Subject:         user.Subject,
		StudyMode:       user.StudyMode,
		Availability:    user.Availability,
		ExperienceLevel: user.ExperienceLevel,
		Location:        user.Location,
		RatingAverage:   user.RatingAverage,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

func toUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// UpdateMeRequest represents the owner-mutable profile fields. Credential
// fields are present only to reject requests that try to smuggle them in.
type UpdateMeRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	ProfileImage    *string `json:"profileImage" validate:"omitempty,max=500"`
	Subject         *string `json:"subject" validate:"omitempty,max=100"`
	StudyMode       *bool   `json:"studyMode"`
	Availability    *string `json:"availability" validate:"omitempty,max=200"`
	ExperienceLevel *string `json:"experienceLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
	Location        *string `json:"location" validate:"omitempty,max=200"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// Me returns the caller's own profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"user": toUserResponse(user),
	})
}

// GetUser returns a single profile by id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteNotFound(w, "No user found with that ID")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"user": toUserResponse(user),
	})
}

// ListUsers returns profiles matching the query filters
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repositories.UserFilter{
		Role:            q.Get("role"),
		Subject:         q.Get("subject"),
		Location:        q.Get("location"),
		ExperienceLevel: q.Get("experienceLevel"),
	}
	if v := q.Get("studyMode"); v != "" {
		studyMode, err := strconv.ParseBool(v)
		if err != nil {
			pkghttp.WriteBadRequest(w, "studyMode must be true or false")
			return
		}
		filter.StudyMode = &studyMode
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	users, err := h.service.ListUsers(r.Context(), filter, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"results": len(users),
		"users":   toUserResponses(users),
	})
}

// UpdateMe applies profile changes to the caller's own account
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Password != nil || req.PasswordConfirm != nil {
		pkghttp.WriteBadRequest(w, "This route is not for password updates. Please use /updatePassword")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, repositories.ProfileUpdate{
		Name:            req.Name,
		ProfileImage:    req.ProfileImage,
		Subject:         req.Subject,
		StudyMode:       req.StudyMode,
		Availability:    req.Availability,
		ExperienceLevel: req.ExperienceLevel,
		Location:        req.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User no longer exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"user": toUserResponse(updated),
	})
}
