package signin

import (
	"context"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

// Service описывает бизнес-логику входа.
type Service interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
}
