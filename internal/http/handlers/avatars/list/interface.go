package list

import (
	"context"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

// Catalog отдаёт справочник аватаров.
type Catalog interface {
	List(ctx context.Context) ([]models.Avatar, error)
}

// Users отдаёт пользователя, для которого вычисляются открытые аватары.
type Users interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
}
