package http

import (
	"net/http"

	"github.com/tidylist/tidylist/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the HTTP handler serving the backend API.
//
// Routes:
//
//	POST /api/v1/auth/register               → authHandler.Register (public)
//	POST /api/v1/auth/login                  → authHandler.Login (public)
//	POST /api/v1/auth/update_profile         → authHandler.UpdateProfile
//	POST /api/v1/auth/update_profile_picture → authHandler.UpdateProfilePicture
//	GET/POST /api/v1/todos, PUT/DELETE /api/v1/todos/{id}
//	GET  /api/user_images/{filename}         → authHandler.ServeImage (public)
//	POST /api/ai/process_message             → aiHandler.ProcessMessage
//	POST /api/ai/init_conversation           → aiHandler.InitConversation
//
// Everything except registration, login and image fetches requires a
// valid bearer token.
func NewRouter(
	authHandler *AuthHandler,
	todoHandler *TodoHandler,
	aiHandler *AIHandler,
	tokens middleware.TokenValidator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(tokens))

			r.Post("/auth/update_profile", authHandler.UpdateProfile)
			r.Post("/auth/update_profile_picture", authHandler.UpdateProfilePicture)

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", todoHandler.List)
				r.Post("/", todoHandler.Create)
				r.Put("/{id}", todoHandler.Update)
				r.Delete("/{id}", todoHandler.Delete)
			})
		})
	})

	// Static profile pictures live outside the versioned prefix.
	r.Get("/api/user_images/{filename}", authHandler.ServeImage)

	// AI endpoints also live outside the versioned prefix.
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(tokens))
		r.Post("/api/ai/process_message", aiHandler.ProcessMessage)
		r.Post("/api/ai/init_conversation", aiHandler.InitConversation)
	})

	return r
}
