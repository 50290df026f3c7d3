package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

const selectAvatar = `SELECT id, name, image_url, unlock_criteria FROM avatars`

func scanAvatar(row rowScanner) (models.Avatar, error) {
	var a models.Avatar
	err := row.Scan(&a.ID, &a.Name, &a.ImageURL, &a.UnlockCriteria)
	return a, err
}

func (s *Storage) findAvatar(ctx context.Context, op, query string, args ...any) (models.Avatar, bool, error) {
	if err := checkCtx(ctx, op); err != nil {
		return models.Avatar{}, false, err
	}
	a, err := scanAvatar(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Avatar{}, false, nil
	}
	if err != nil {
		return models.Avatar{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return a, true, nil
}

// CountAvatars возвращает количество аватаров в справочнике.
func (s *Storage) CountAvatars(ctx context.Context) (int, error) {
	const op = "storage.CountAvatars"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM avatars`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// FindAvatarByName возвращает аватар по имени.
func (s *Storage) FindAvatarByName(ctx context.Context, name string) (models.Avatar, bool, error) {
	const op = "storage.FindAvatarByName"
	return s.findAvatar(ctx, op, selectAvatar+` WHERE name = $1`, name)
}

// FindAvatarByUnlockCriteria возвращает аватар с ровно таким порогом.
// При нескольких совпадениях выбирается аватар с наименьшим ID.
func (s *Storage) FindAvatarByUnlockCriteria(ctx context.Context, criteria int) (models.Avatar, bool, error) {
	const op = "storage.FindAvatarByUnlockCriteria"
	return s.findAvatar(ctx, op, selectAvatar+` WHERE unlock_criteria = $1 ORDER BY id LIMIT 1`, criteria)
}

// FindBestAvatar возвращает аватар с наибольшим порогом, не превышающим sessions.
// Равные пороги разрешаются в пользу наименьшего ID.
func (s *Storage) FindBestAvatar(ctx context.Context, sessions int) (models.Avatar, bool, error) {
	const op = "storage.FindBestAvatar"
	return s.findAvatar(ctx, op, selectAvatar+`
			  WHERE unlock_criteria <= $1
			  ORDER BY unlock_criteria DESC, id ASC
			  LIMIT 1`, sessions)
}

// CreateAvatarIfAbsent вставляет аватар, если аватара с таким именем ещё нет,
// и в любом случае возвращает сохранённую запись.
func (s *Storage) CreateAvatarIfAbsent(ctx context.Context, avatar models.Avatar) (models.Avatar, error) {
	const op = "storage.CreateAvatarIfAbsent"
	query := `INSERT INTO avatars (name, image_url, unlock_criteria)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (name) DO NOTHING
			  RETURNING id, name, image_url, unlock_criteria`
	a, found, err := s.findAvatar(ctx, op, query, avatar.Name, avatar.ImageURL, avatar.UnlockCriteria)
	if err != nil {
		return models.Avatar{}, err
	}
	if found {
		return a, nil
	}

	a, found, err = s.FindAvatarByName(ctx, avatar.Name)
	if err != nil {
		return models.Avatar{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.Avatar{}, fmt.Errorf("%s: avatar %q vanished after conflict", op, avatar.Name)
	}
	return a, nil
}

// ListAvatars возвращает весь справочник по возрастанию порога.
func (s *Storage) ListAvatars(ctx context.Context) ([]models.Avatar, error) {
	const op = "storage.ListAvatars"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, selectAvatar+` ORDER BY unlock_criteria ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Avatar
	for rows.Next() {
		a, err := scanAvatar(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
