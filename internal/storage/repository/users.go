package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

const selectUser = `SELECT u.id, u.email, u.username, u.password_hash,
			      u.nr_focus_sessions, u.total_focus_time, u.nr_focus_sessions_today,
			      u.focus_time_today, a.id, a.name, a.image_url, a.unlock_criteria
			  FROM users u
			  JOIN avatars a ON a.id = u.avatar_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash,
		&u.NrFocusSessions, &u.TotalFocusTime, &u.NrFocusSessionsToday,
		&u.FocusTimeToday, &u.Avatar.ID, &u.Avatar.Name, &u.Avatar.ImageURL, &u.Avatar.UnlockCriteria)
	return u, err
}

// ExistsByEmail проверяет, занят ли email.
func (s *Storage) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const op = "storage.ExistsByEmail"
	return s.exists(ctx, op, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

// ExistsByUsername проверяет, занято ли имя пользователя.
func (s *Storage) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const op = "storage.ExistsByUsername"
	return s.exists(ctx, op, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (s *Storage) exists(ctx context.Context, op, query string, arg any) (bool, error) {
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// FindByEmail возвращает пользователя по email. found == false, если такого нет.
func (s *Storage) FindByEmail(ctx context.Context, email string) (models.User, bool, error) {
	const op = "storage.FindByEmail"
	return s.findOne(ctx, op, selectUser+` WHERE u.email = $1`, email)
}

// FindByUsername возвращает пользователя по имени. found == false, если такого нет.
func (s *Storage) FindByUsername(ctx context.Context, username string) (models.User, bool, error) {
	const op = "storage.FindByUsername"
	return s.findOne(ctx, op, selectUser+` WHERE u.username = $1`, username)
}

// FindByID возвращает пользователя по ID. found == false, если такого нет.
func (s *Storage) FindByID(ctx context.Context, id int64) (models.User, bool, error) {
	const op = "storage.FindByID"
	return s.findOne(ctx, op, selectUser+` WHERE u.id = $1`, id)
}

func (s *Storage) findOne(ctx context.Context, op, query string, arg any) (models.User, bool, error) {
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, false, err
	}
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, true, nil
}

// Save вставляет нового пользователя (ID == 0) или обновляет существующего
// и возвращает сохранённое представление. Нарушение уникальности email или
// имени возвращается как ErrEmailTaken / ErrUsernameTaken.
func (s *Storage) Save(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.Save"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}
	if user.ID == 0 {
		return s.insert(ctx, op, user)
	}
	return s.update(ctx, op, user)
}

func (s *Storage) insert(ctx context.Context, op string, user models.User) (models.User, error) {
	query := `INSERT INTO users (email, username, password_hash, nr_focus_sessions,
			      total_focus_time, nr_focus_sessions_today, focus_time_today, avatar_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.NrFocusSessions,
		user.TotalFocusTime, user.NrFocusSessionsToday, user.FocusTimeToday, user.Avatar.ID,
	).Scan(&user.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, translateUserError(err))
	}
	return user, nil
}

func (s *Storage) update(ctx context.Context, op string, user models.User) (models.User, error) {
	query := `UPDATE users
			  SET email = $1, username = $2, password_hash = $3, nr_focus_sessions = $4,
			      total_focus_time = $5, nr_focus_sessions_today = $6, focus_time_today = $7,
			      avatar_id = $8
			  WHERE id = $9`
	result, err := s.DB.ExecContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.NrFocusSessions,
		user.TotalFocusTime, user.NrFocusSessionsToday, user.FocusTimeToday, user.Avatar.ID,
		user.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, translateUserError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return user, nil
}

// AddFocusSession атомарно учитывает одну завершённую сессию длительностью
// minutes и возвращает обновлённого пользователя.
func (s *Storage) AddFocusSession(ctx context.Context, id int64, minutes int) (models.User, bool, error) {
	const op = "storage.AddFocusSession"
	return s.updateReturning(ctx, op, `nr_focus_sessions = nr_focus_sessions + 1,
			          total_focus_time = total_focus_time + $2,
			          nr_focus_sessions_today = nr_focus_sessions_today + 1,
			          focus_time_today = (COALESCE(NULLIF(focus_time_today, ''), '0')::INT + $2)::TEXT`,
		id, minutes)
}

// SetAvatar меняет только аватар пользователя. Счётчики сессий не трогаются,
// поэтому параллельно записанные сессии не теряются.
func (s *Storage) SetAvatar(ctx context.Context, id, avatarID int64) (models.User, bool, error) {
	const op = "storage.SetAvatar"
	return s.updateReturning(ctx, op, `avatar_id = $2`, id, avatarID)
}

// UpdatePassword меняет только хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	const op = "storage.UpdatePassword"
	_, found, err := s.updateReturning(ctx, op, `password_hash = $2`, id, passwordHash)
	return found, err
}

// UpdateUsername меняет только имя пользователя. Занятое имя возвращается как ErrUsernameTaken.
func (s *Storage) UpdateUsername(ctx context.Context, id int64, username string) (bool, error) {
	const op = "storage.UpdateUsername"
	_, found, err := s.updateReturning(ctx, op, `username = $2`, id, username)
	return found, err
}

// updateReturning выполняет UPDATE users SET <set> WHERE id = $1 и возвращает
// строку после изменения вместе с аватаром. found == false, если пользователя нет.
func (s *Storage) updateReturning(ctx context.Context, op, set string, id int64, args ...any) (models.User, bool, error) {
	query := `WITH u AS (
			      UPDATE users
			      SET ` + set + `
			      WHERE id = $1
			      RETURNING *
			  )
			  SELECT u.id, u.email, u.username, u.password_hash,
			      u.nr_focus_sessions, u.total_focus_time, u.nr_focus_sessions_today,
			      u.focus_time_today, a.id, a.name, a.image_url, a.unlock_criteria
			  FROM u
			  JOIN avatars a ON a.id = u.avatar_id`
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, false, err
	}
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("%s: %w", op, translateUserError(err))
	}
	return u, true, nil
}
