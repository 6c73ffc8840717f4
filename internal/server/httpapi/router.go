// Package httpapi is the JSON/HTTP surface of the session service.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/httpauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *AuthHandler, logger logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(httpauth.RejectBlacklisted(h.validator, logger))

	authenticate := httpauth.Authenticate(h.validator, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
			r.Get("/validate", h.Validate)
			r.Get("/is-blacklisted", h.IsBlacklisted)
		})

		r.With(authenticate).Get("/user/profile", h.Profile)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate, httpauth.RequireRole(common.RoleAdmin))
			r.Get("/dashboard", h.AdminDashboard)
		})
	})

	return r
}

// requestLogger logs one line per request through the project logger.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info(r.Context(), "http request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
