// Package sl содержит вспомогательные функции для работы с логгером slog:
// создание логгера под окружение и формирование структурированных полей,
// например, для передачи информации об ошибках.
package sl

import (
	"io"
	"log/slog"
)

// Окружения, от которых зависит формат и уровень логов.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New создаёт логгер для окружения env: текстовый с уровнем Debug локально,
// JSON с уровнем Debug в dev и JSON с уровнем Info во всех остальных случаях.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

// Discard возвращает логгер, который ничего не пишет. Удобен в тестах.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Удобно использовать в логировании для единообразного вывода ошибок.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
