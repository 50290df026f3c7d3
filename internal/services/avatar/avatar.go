// Package avatar содержит справочник аватаров: выбор аватара по умолчанию,
// подбор лучшего открытого аватара по числу сессий и начальное заполнение.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

var (
	// ErrNoDefaultAvatar означает, что в справочнике нет аватара с порогом 0.
	// Без него новому пользователю нечего назначить, это ошибка данных.
	ErrNoDefaultAvatar = errors.New("default avatar not found")
	// ErrInvalidThreshold возвращается для отрицательного порога или числа сессий.
	ErrInvalidThreshold = errors.New("threshold must be non-negative")
)

// DefaultSeed - начальный набор аватаров.
var DefaultSeed = []models.Avatar{
	{Name: "Leaf", ImageURL: "avatar1", UnlockCriteria: 0},
	{Name: "PineCone", ImageURL: "avatar2", UnlockCriteria: 10},
	{Name: "Mushroom", ImageURL: "avatar3", UnlockCriteria: 20},
}

// Repository описывает хранилище справочника аватаров.
type Repository interface {
	CountAvatars(ctx context.Context) (int, error)
	FindAvatarByUnlockCriteria(ctx context.Context, criteria int) (models.Avatar, bool, error)
	FindBestAvatar(ctx context.Context, sessions int) (models.Avatar, bool, error)
	CreateAvatarIfAbsent(ctx context.Context, avatar models.Avatar) (models.Avatar, error)
	ListAvatars(ctx context.Context) ([]models.Avatar, error)
}

// Catalog реализует операции над справочником аватаров.
type Catalog struct {
	repo Repository
	log  *slog.Logger
}

// NewCatalog создаёт Catalog.
func NewCatalog(repo Repository, log *slog.Logger) *Catalog {
	return &Catalog{
		repo: repo,
		log:  log,
	}
}

// DefaultAvatar возвращает единственный аватар с порогом 0.
func (c *Catalog) DefaultAvatar(ctx context.Context) (models.Avatar, error) {
	const op = "avatar.DefaultAvatar"
	a, found, err := c.repo.FindAvatarByUnlockCriteria(ctx, 0)
	if err != nil {
		return models.Avatar{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.Avatar{}, fmt.Errorf("%s: %w", op, ErrNoDefaultAvatar)
	}
	return a, nil
}

// BestFor возвращает аватар с наибольшим порогом, не превышающим sessions.
// Равные пороги разрешаются в пользу наименьшего ID. Если подходящих нет,
// возвращается аватар по умолчанию.
func (c *Catalog) BestFor(ctx context.Context, sessions int) (models.Avatar, error) {
	const op = "avatar.BestFor"
	if sessions < 0 {
		return models.Avatar{}, fmt.Errorf("%s: %w", op, ErrInvalidThreshold)
	}
	a, found, err := c.repo.FindBestAvatar(ctx, sessions)
	if err != nil {
		return models.Avatar{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		c.log.Warn("no avatar matches session count, falling back to default",
			slog.String("op", op), slog.Int("sessions", sessions))
		return c.DefaultAvatar(ctx)
	}
	return a, nil
}

// CreateIfAbsent создаёт аватар с именем name, если его ещё нет, и возвращает сохранённую запись.
func (c *Catalog) CreateIfAbsent(ctx context.Context, name string, threshold int, imageRef string) (models.Avatar, error) {
	const op = "avatar.CreateIfAbsent"
	if threshold < 0 {
		return models.Avatar{}, fmt.Errorf("%s: %w", op, ErrInvalidThreshold)
	}
	a, err := c.repo.CreateAvatarIfAbsent(ctx, models.Avatar{
		Name:           name,
		ImageURL:       imageRef,
		UnlockCriteria: threshold,
	})
	if err != nil {
		return models.Avatar{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// List возвращает весь справочник по возрастанию порога.
func (c *Catalog) List(ctx context.Context) ([]models.Avatar, error) {
	const op = "avatar.List"
	list, err := c.repo.ListAvatars(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Seed заполняет пустой справочник набором seed и проверяет, что аватар
// по умолчанию существует. Непустой справочник не изменяется.
func (c *Catalog) Seed(ctx context.Context, seed []models.Avatar) error {
	const op = "avatar.Seed"
	n, err := c.repo.CountAvatars(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		for _, a := range seed {
			if _, err := c.CreateIfAbsent(ctx, a.Name, a.UnlockCriteria, a.ImageURL); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		c.log.Info("avatar catalog seeded", slog.Int("count", len(seed)))
	}

	if _, err := c.DefaultAvatar(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
