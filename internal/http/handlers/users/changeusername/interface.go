package changeusername

import "context"

// Service описывает смену имени пользователя.
type Service interface {
	ChangeUsername(ctx context.Context, id int64, newUsername, password string) error
}
