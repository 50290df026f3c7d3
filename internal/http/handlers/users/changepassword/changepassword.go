// Package changepassword реализует HTTP-обработчик смены пароля.
package changepassword

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
	"github.com/magabrotheeeer/focus-backend/internal/lib/validate"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Request - старый и новый пароли.
type Request struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,maxbytes=72"`
}

// Handler обрабатывает PUT /api/users/change-password/{userId}.
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
		validate: validate.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.changepassword"

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

	err = h.service.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword)
	switch account.KindOf(err) {
	case account.KindIncorrectOldPassword:
		log.Info("incorrect old password", slog.Int64("user_id", id))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Message("Incorrect old password"))
		return
	case account.KindUserNotFound:
		log.Info("user not found", slog.Int64("user_id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Message("User not found"))
		return
	case account.KindInvalidInput:
		log.Info("new password rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid password"))
		return
	}
	if err != nil {
		log.Error("failed to change password", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Message("Failed to update password"))
		return
	}

	log.Info("password updated", slog.Int64("user_id", id))
	render.JSON(w, r, response.Message("Password updated successfully"))
}
