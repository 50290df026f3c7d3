// Package changeusername реализует HTTP-обработчик смены имени пользователя.
package changeusername

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
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Request - новое имя и текущий пароль для подтверждения.
type Request struct {
	NewUsername string `json:"newUsername" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required"`
}

// Response - ответ при успешной смене имени.
type Response struct {
	NewUsername string `json:"newUsername"`
}

// Handler обрабатывает PUT /api/users/change-username/{userId}.
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
	const op = "handlers.users.changeusername"

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

	err = h.service.ChangeUsername(r.Context(), id, req.NewUsername, req.Password)
	switch account.KindOf(err) {
	case account.KindIncorrectPassword:
		log.Info("incorrect password", slog.Int64("user_id", id))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Message("Incorrect password"))
		return
	case account.KindDuplicateUsername:
		log.Info("username already taken", slog.String("username", req.NewUsername))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Message("Username already exists"))
		return
	case account.KindUserNotFound:
		log.Info("user not found", slog.Int64("user_id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Message("User not found"))
		return
	}
	if err != nil {
		log.Error("failed to change username", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Message("Failed to update username"))
		return
	}

	log.Info("username updated", slog.Int64("user_id", id))
	render.JSON(w, r, Response{NewUsername: req.NewUsername})
}
