package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"converse/internal/handler"
	"converse/internal/httputil"
	"converse/internal/service"
	authmw "converse/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	ProfileHandler *handler.ProfileHandler
	FollowHandler  *handler.FollowHandler
	PostHandler    *handler.PostHandler
	TagHandler     *handler.TagHandler
	MessageHandler *handler.MessageHandler
	AuthService    service.AuthService
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes - no authentication required
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)

			// Token-bound auth endpoints
			r.Group(func(r chi.Router) {
				r.Use(authmw.Auth(cfg.AuthService))
				r.Get("/user", cfg.AuthHandler.CurrentUser)
				r.Get("/logout", cfg.AuthHandler.Logout)
			})
		})

		// Everything else requires authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth(cfg.AuthService))

			r.Route("/profile", func(r chi.Router) {
				r.Get("/{username}", cfg.ProfileHandler.Get)
				r.Put("/", cfg.ProfileHandler.Update)
				r.Delete("/", cfg.ProfileHandler.Delete)
			})

			r.Route("/users", func(r chi.Router) {
				// Static segment before the {username} wildcard
				r.Get("/messages", cfg.MessageHandler.Inbox)

				r.Route("/{username}", func(r chi.Router) {
					// The follow edges address users by id through the
					// shared path slot.
					r.Post("/follow", cfg.FollowHandler.Follow)
					r.Post("/unfollow", cfg.FollowHandler.Unfollow)
					r.Get("/followers", cfg.FollowHandler.Followers)
					r.Get("/following", cfg.FollowHandler.Following)

					r.Get("/posts", cfg.PostHandler.UserPosts)
					r.Get("/comments", cfg.PostHandler.UserComments)
					r.Get("/likes", cfg.PostHandler.UserLikes)
				})
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", cfg.PostHandler.Feed)
				r.Post("/", cfg.PostHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.PostHandler.Get)
					r.Delete("/", cfg.PostHandler.Delete)
					r.Get("/comments", cfg.PostHandler.Comments)
					r.Post("/comments", cfg.PostHandler.CreateComment)
					r.Post("/likes", cfg.PostHandler.ToggleLike)
				})
			})

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", cfg.TagHandler.List)
				r.Post("/", cfg.TagHandler.Create)
				r.Post("/{id}/follow", cfg.TagHandler.ToggleFollow)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", cfg.MessageHandler.Messages)
				r.Post("/", cfg.MessageHandler.Send)
				r.Delete("/{id}", cfg.MessageHandler.Delete)
			})
		})
	})

	return r
}
