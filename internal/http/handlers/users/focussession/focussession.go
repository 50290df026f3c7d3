// Package focussession реализует HTTP-обработчик записи завершённой
// фокус-сессии. Ответ содержит обновлённую статистику и признак смены аватара.
package focussession

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/focus-backend/internal/http/response"
	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/models"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Request - длительность сессии в минутах.
type Request struct {
	DurationMinutes int `json:"durationMinutes" validate:"gte=1"`
}

// Response - статистика пользователя после записи сессии.
type Response struct {
	NrFocusSessions int           `json:"nrFocusSessions"`
	TotalFocusTime  int           `json:"totalFocusTime"`
	Avatar          models.Avatar `json:"avatar"`
	AvatarChanged   bool          `json:"avatarChanged"`
}

// Handler обрабатывает POST /api/users/{userId}/focus-sessions.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.focussession"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		log.Info("invalid userId", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Message("Invalid user id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.RecordFocusSession(r.Context(), id, req.DurationMinutes)
	if err != nil {
		switch account.KindOf(err) {
		case account.KindUserNotFound:
			log.Info("user not found", slog.Int64("user_id", id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Message("User not found"))
		case account.KindInvalidInput:
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to record focus session", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Message("Failed to record focus session"))
		}
		return
	}

	log.Info("focus session recorded",
		slog.Int64("user_id", id),
		slog.Int("minutes", req.DurationMinutes),
		slog.Bool("avatar_changed", res.AvatarChanged),
	)
	render.JSON(w, r, Response{
		NrFocusSessions: res.User.NrFocusSessions,
		TotalFocusTime:  res.User.TotalFocusTime,
		Avatar:          res.User.Avatar,
		AvatarChanged:   res.AvatarChanged,
	})
}
