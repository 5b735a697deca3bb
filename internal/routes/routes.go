package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/handlers"
	"github.com/studyhive/studyhive/internal/middleware"
	"github.com/studyhive/studyhive/internal/repositories"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

// RegisterRoutes registers all application routes under /api/v1
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	friendshipHandler *handlers.FriendshipHandler,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()
	protect := auth.Protect(tokenManager, userRepo)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			// Credential endpoints, rate limited per client IP
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/signup", authHandler.Signup)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/login", authHandler.Login)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/social-login", authHandler.SocialLogin)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/refresh_token", authHandler.RefreshToken)

			// Browsable directory of profiles
			r.Get("/", userHandler.ListUsers)

			// Authenticated user endpoints
			r.Group(func(r chi.Router) {
				r.Use(protect)

				r.Post("/logout", authHandler.Logout)
				r.Patch("/updatePassword", authHandler.UpdatePassword)
				r.Get("/me", userHandler.Me)
				r.Patch("/updateMe", userHandler.UpdateMe)
				r.Get("/{id}", userHandler.GetUser)
			})
		})

		r.Route("/friendships", func(r chi.Router) {
			r.Use(protect)

			r.Post("/send-request", friendshipHandler.SendRequest)
			r.Post("/accept-request", friendshipHandler.AcceptRequest)
			r.Post("/unfriend", friendshipHandler.Unfriend)
			r.Get("/all-friends/{id}", friendshipHandler.ListFriends)
			r.Get("/all-requested-friends/{id}", friendshipHandler.ListPendingRequests)
		})
	})

	// Unmatched routes get the same envelope shape as everything else
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Can't find "+r.URL.Path+" on this server")
	})
}
