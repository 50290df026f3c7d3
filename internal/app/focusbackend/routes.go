package focusbackend

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/avatars/list"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/health"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/users/changepassword"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/users/changeusername"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/users/focussession"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/users/register"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/users/signin"
	"github.com/magabrotheeeer/focus-backend/internal/http/mware"
	"github.com/magabrotheeeer/focus-backend/internal/metrics"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
	"github.com/magabrotheeeer/focus-backend/internal/services/avatar"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, accounts *account.Service, catalog *avatar.Catalog, m *metrics.Metrics, checks ...health.Check) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		mware.Logger(logger),
		middleware.Recoverer,
		m.Middleware,
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", register.New(logger, accounts).ServeHTTP)
			r.Post("/signin", signin.New(logger, accounts).ServeHTTP)
			r.Post("/profile", profile.New(logger, accounts).ServeHTTP)
			r.Put("/change-password/{userId}", changepassword.New(logger, accounts).ServeHTTP)
			r.Put("/change-username/{userId}", changeusername.New(logger, accounts).ServeHTTP)
			r.Post("/{userId}/focus-sessions", focussession.New(logger, accounts).ServeHTTP)
		})
		r.Get("/avatars", list.New(logger, catalog, accounts).ServeHTTP)
	})

	r.Get("/health", health.New(logger, checks...).ServeHTTP)
	r.Handle("/metrics", m.Handler())
}
