// Package list реализует HTTP-обработчик списка аватаров.
//
// Без параметров отдаётся весь справочник по возрастанию порога. С параметром
// userId каждый элемент дополнительно содержит признак unlocked для этого пользователя.
package list

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/focus-backend/internal/http/response"
	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/models"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Item - элемент списка.
type Item struct {
	models.Avatar
	Unlocked *bool `json:"unlocked,omitempty"`
}

// Handler обрабатывает GET /api/avatars.
type Handler struct {
	log     *slog.Logger
	catalog Catalog
	users   Users
}

// New создаёт Handler.
func New(log *slog.Logger, catalog Catalog, users Users) *Handler {
	return &Handler{
		log:     log,
		catalog: catalog,
		users:   users,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.avatars.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessions := -1
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Info("invalid userId", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Message("Invalid user id"))
			return
		}
		user, err := h.users.GetUser(r.Context(), id)
		if err != nil {
			if account.KindOf(err) == account.KindUserNotFound {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Message("User not found"))
				return
			}
			log.Error("failed to get user", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not list avatars"))
			return
		}
		sessions = user.NrFocusSessions
	}

	avatars, err := h.catalog.List(r.Context())
	if err != nil {
		log.Error("failed to list avatars", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list avatars"))
		return
	}

	items := make([]Item, 0, len(avatars))
	for _, a := range avatars {
		item := Item{Avatar: a}
		if sessions >= 0 {
			unlocked := a.UnlockedBy(sessions)
			item.Unlocked = &unlocked
		}
		items = append(items, item)
	}
	render.JSON(w, r, items)
}
