// Package profile реализует HTTP-обработчик профиля пользователя.
//
// Профиль отдаётся массивом из семи строк; порядок элементов
// является частью контракта с клиентом.
package profile

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Handler обрабатывает POST /api/users/profile?userId=N.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		log.Info("invalid userId", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		if account.KindOf(err) == account.KindUserNotFound {
			log.Info("user not found", slog.Int64("user_id", id))
			w.WriteHeader(http.StatusNotFound)
			return
		}
		log.Error("failed to get profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, p.Strings())
}
