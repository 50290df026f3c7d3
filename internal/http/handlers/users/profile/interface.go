package profile

import (
	"context"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

// Service описывает получение профиля.
type Service interface {
	GetProfile(ctx context.Context, id int64) (models.Profile, error)
}
