package changepassword

import "context"

// Service описывает смену пароля.
type Service interface {
	ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error
}
