package focussession

import (
	"context"

	"github.com/magabrotheeeer/focus-backend/internal/services/account"
)

// Service описывает запись завершённой фокус-сессии.
type Service interface {
	RecordFocusSession(ctx context.Context, id int64, minutes int) (account.FocusResult, error)
}
