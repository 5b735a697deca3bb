package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/studyhive/studyhive/internal/models"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for the authenticated user in the request context
	UserContextKey contextKey = "user"
	// ClaimsContextKey is the key for the verified token claims
	ClaimsContextKey contextKey = "claims"
)

// UserRepository is the subset of the user store the gate needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Protect is the authentication gate. It verifies the bearer access token,
// loads the subject, rejects tokens revoked by a later logout (generation
// mismatch) or issued before the last password change, and attaches the
// resolved user to the request context.
func Protect(tm *TokenManager, userRepo UserRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "You are not logged in. Please log in to get access.")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "Invalid authorization header format.")
				return
			}

			claims, err := tm.ValidateAccessToken(parts[1])
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					pkghttp.WriteUnauthorized(w, "Your session has expired. Please log in again.")
					return
				}
				pkghttp.WriteUnauthorized(w, "Invalid token. Please log in again.")
				return
			}

			user, err := userRepo.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "The user belonging to this token no longer exists.")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			// Revoked by a later logout
			if claims.TokenGeneration != user.TokenGeneration {
				pkghttp.WriteUnauthorized(w, "Your session has been revoked. Please log in again.")
				return
			}

			// Stale after a credential rotation
			if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
				claims.IssuedAt.Time.Before(*user.PasswordChangedAt) {
				pkghttp.WriteUnauthorized(w, "Password was changed after this token was issued. Please log in again.")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetClaimsFromContext extracts the verified token claims from the request context
func GetClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(ClaimsContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
