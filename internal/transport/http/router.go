package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"socialnet/internal/handler"
	"socialnet/internal/httputil"
	"socialnet/internal/metrics"
	authmw "socialnet/internal/transport/http/middleware"
)

const requestTimeout = 30 * time.Second

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler
	Tokens         authmw.TokenParser
	Users          authmw.UserLookup
	DB             Pinger
	Logger         *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.AccessLog(cfg.Logger))
	r.Use(authmw.Recoverer(cfg.Logger))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := cfg.DB.PingContext(ctx); err != nil {
			httputil.WriteError(w, http.StatusServiceUnavailable, httputil.ErrCodeInternal, "Database unavailable")
			return
		}
		httputil.WriteOK(w, "ok", nil)
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := authmw.AuthMiddleware(cfg.Tokens, cfg.Users, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// Public routes - no authentication required
		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Patch("/auth/change-password", cfg.AuthHandler.ChangePassword)

			r.Route("/users", func(r chi.Router) {
				r.Get("/blocked-users", cfg.UserHandler.BlockedUsers)
				r.Get("/{id}", cfg.UserHandler.GetProfile)
				r.Put("/{id}/follow", cfg.UserHandler.Follow)
				r.Put("/{id}/unfollow", cfg.UserHandler.Unfollow)
				r.Put("/{id}/block", cfg.UserHandler.Block)
				r.Put("/{id}/unblock", cfg.UserHandler.Unblock)
				r.Patch("/{id}/update", cfg.UserHandler.UpdateProfile)
				r.Delete("/{id}", cfg.UserHandler.Delete)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Post("/", cfg.PostHandler.Create)
				r.Get("/timeline", cfg.PostHandler.Timeline)
				r.Get("/{id}", cfg.PostHandler.GetOne)
				r.Patch("/{id}/update", cfg.PostHandler.Update)
				r.Put("/{id}/like", cfg.PostHandler.ToggleLike)
				r.Delete("/{id}", cfg.PostHandler.Delete)

				r.Route("/{postId}/comments", func(r chi.Router) {
					r.Post("/", cfg.CommentHandler.Create)
					r.Patch("/{id}/update", cfg.CommentHandler.Update)
					r.Put("/{id}/like", cfg.CommentHandler.ToggleLike)
					r.Get("/{userId}/user-comments", cfg.CommentHandler.ListForUser)
					r.Delete("/{id}", cfg.CommentHandler.Delete)
				})
			})
		})
	})

	return r
}
