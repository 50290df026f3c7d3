package register

import (
	"context"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

// Service описывает бизнес-логику регистрации.
type Service interface {
	Register(ctx context.Context, email, password, username string) (models.User, error)
}
