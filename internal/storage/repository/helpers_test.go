package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/focus-backend/internal/migrations"
	"github.com/magabrotheeeer/focus-backend/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}

// seedAvatars заполняет справочник тремя стандартными аватарами.
func seedAvatars(t *testing.T, s *Storage) (leaf, pine, mushroom models.Avatar) {
	t.Helper()
	ctx := context.Background()
	var err error
	leaf, err = s.CreateAvatarIfAbsent(ctx, models.Avatar{Name: "Leaf", ImageURL: "avatar1", UnlockCriteria: 0})
	require.NoError(t, err)
	pine, err = s.CreateAvatarIfAbsent(ctx, models.Avatar{Name: "PineCone", ImageURL: "avatar2", UnlockCriteria: 10})
	require.NoError(t, err)
	mushroom, err = s.CreateAvatarIfAbsent(ctx, models.Avatar{Name: "Mushroom", ImageURL: "avatar3", UnlockCriteria: 20})
	require.NoError(t, err)
	return leaf, pine, mushroom
}

func newUser(email, username string, avatar models.Avatar) models.User {
	return models.User{
		Email:          email,
		Username:       username,
		PasswordHash:   "hashedpassword",
		FocusTimeToday: "0",
		Avatar:         avatar,
	}
}
