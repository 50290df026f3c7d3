// Package repository реализует хранилище данных на основе PostgreSQL
// для пользователей и справочника аватаров. Предоставляет проверки
// уникальности, поиск, сохранение пользователей и атомарный учёт фокус-сессий.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки хранилища, которые сервисный слой различает по значению.
var (
	ErrEmailTaken    = errors.New("email already exists")
	ErrUsernameTaken = errors.New("username already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrAvatarMissing = errors.New("avatar does not exist")
)

// Имена ограничений из migrations/000001_init.up.sql.
const (
	constraintUsersEmail    = "users_email_key"
	constraintUsersUsername = "users_username_key"
	constraintUsersAvatar   = "users_avatar_id_fkey"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями и аватарами.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Ping проверяет, что база данных отвечает.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены и нужные таблицы существуют.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	for _, table := range []string{"users", "avatars"} {
		var exists bool
		err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("required table %s missing", table)
		}
	}
	return nil
}

// translateUserError превращает нарушения ограничений таблицы users в ошибки хранилища.
func translateUserError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraintUsersEmail:
		return ErrEmailTaken
	case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraintUsersUsername:
		return ErrUsernameTaken
	case pgErr.Code == pgerrcode.ForeignKeyViolation && pgErr.ConstraintName == constraintUsersAvatar:
		return ErrAvatarMissing
	}
	return err
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
