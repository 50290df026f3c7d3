// Package signin реализует HTTP-обработчик входа по почте и паролю.
//
// Неизвестная почта и неверный пароль клиенту не различаются:
// в обоих случаях возвращается 401 без тела.
package signin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/focus-backend/internal/http/response"
	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Request - входные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает POST /api/users/signin.
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
	const op = "handlers.users.signin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	user, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		switch kind := account.KindOf(err); kind {
		case account.KindUserNotFound, account.KindInvalidCredentials:
			log.Info("sign in rejected", slog.String("reason", kind.String()))
			w.WriteHeader(http.StatusUnauthorized)
		default:
			log.Error("sign in failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	log.Info("user signed in", slog.Int64("user_id", user.ID))
	render.JSON(w, r, user)
}
