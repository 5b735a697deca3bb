package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/models"
	"github.com/studyhive/studyhive/internal/services"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, input services.SignupInput) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	FederatedLogin(ctx context.Context, idToken string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, password, passwordConfirm string) (*services.TokenPair, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service       AuthServiceInterface
	cookieConfig  auth.CookieConfig
	refreshExpiry time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, refreshExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		service:       service,
		cookieConfig:  cookieConfig,
		refreshExpiry: refreshExpiry,
	}
}

// Request DTOs

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
	Role            string `json:"role" validate:"omitempty,oneof=student tutor"`
	ProfileImage    string `json:"profileImage" validate:"omitempty,max=500"`
	Subject         string `json:"subject" validate:"omitempty,max=100"`
	StudyMode       bool   `json:"studyMode"`
	Availability    string `json:"availability" validate:"omitempty,max=200"`
	ExperienceLevel string `json:"experienceLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
	Location        string `json:"location" validate:"omitempty,max=200"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SocialLoginRequest carries the provider-issued identity token
type SocialLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// UpdatePasswordRequest represents the request body for a password change
type UpdatePasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// writeTokenPair sets the refresh cookie and writes the access token
// envelope. The refresh token only ever travels in the cookie.
func (h *AuthHandler) writeTokenPair(w http.ResponseWriter, statusCode int, pair *services.TokenPair) {
	auth.SetRefreshTokenCookie(w, pair.RefreshToken, h.refreshExpiry, h.cookieConfig)
	pkghttp.WriteToken(w, statusCode, pair.AccessToken, map[string]interface{}{
		"user": toUserResponse(pair.User),
	})
}

// Signup handles new account registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.Signup(r.Context(), services.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Role:            req.Role,
		ProfileImage:    req.ProfileImage,
		Subject:         req.Subject,
		StudyMode:       req.StudyMode,
		Availability:    req.Availability,
		ExperienceLevel: req.ExperienceLevel,
		Location:        req.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email already in use")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.writeTokenPair(w, http.StatusCreated, pair)
}

// Login handles password login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Incorrect email or password")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.writeTokenPair(w, http.StatusOK, pair)
}

// SocialLogin handles login with a federated identity token, creating the
// account on first sight of the subject.
func (h *AuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req SocialLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.FederatedLogin(r.Context(), req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Could not verify your identity. Please try again.")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "You are already registered with an email and password. Please log in with your password.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.writeTokenPair(w, http.StatusOK, pair)
}

// RefreshToken rotates the token pair. The refresh token arrives only via
// the path-scoped cookie, never the request body.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := auth.GetRefreshTokenCookie(r)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	pair, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			auth.ClearRefreshTokenCookie(w, h.cookieConfig)
			pkghttp.WriteUnauthorized(w, "Your session has expired. Please log in again.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.writeTokenPair(w, http.StatusOK, pair)
}

// Logout revokes every outstanding token for the caller and clears the
// refresh cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	if err := h.service.Logout(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "You are not logged in")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	pkghttp.WriteSuccessMessage(w, http.StatusOK, "Logged out successfully")
}

// UpdatePassword rotates the caller's password and re-issues tokens so the
// current session survives while every other one goes stale.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.UpdatePassword(r.Context(), user.ID, req.Password, req.PasswordConfirm)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User no longer exists")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Accounts created with a social login have no password to update")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.writeTokenPair(w, http.StatusOK, pair)
}
