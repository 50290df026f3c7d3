// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
)

// Pinger - зависимость, доступность которой проверяется.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check связывает имя зависимости с её проверкой.
type Check struct {
	Name   string
	Pinger Pinger
}

// Handler обрабатывает GET /health.
type Handler struct {
	log     *slog.Logger
	checks  []Check
	timeout time.Duration
}

// New создаёт Handler.
func New(log *slog.Logger, checks ...Check) *Handler {
	return &Handler{
		log:     log,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for _, c := range h.checks {
		if err := c.Pinger.Ping(ctx); err != nil {
			h.log.Warn("dependency unavailable", slog.String("op", op), slog.String("dependency", c.Name), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{
				"status":     "unavailable",
				"dependency": c.Name,
			})
			return
		}
	}

	render.JSON(w, r, map[string]string{"status": "ok"})
}
