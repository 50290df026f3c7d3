// Package register реализует HTTP-обработчик регистрации пользователя.
package register

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/focus-backend/internal/http/response"
	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/lib/validate"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Request - входные данные для регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	Username string `json:"username" validate:"required,min=3,max=50"`
}

// Handler обрабатывает POST /api/users/register.
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
	const op = "handlers.users.register"

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

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		switch account.KindOf(err) {
		case account.KindDuplicateEmail:
			log.Info("email already registered")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("email already exists"))
		case account.KindDuplicateUsername:
			log.Info("username already registered")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("username already exists"))
		case account.KindInvalidInput:
			log.Info("invalid registration input", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid password"))
		default:
			log.Error("registration failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to register user"))
		}
		return
	}

	log.Info("user registered", slog.Int64("user_id", user.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}
