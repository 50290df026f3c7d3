// Package focusbackend собирает HTTP-приложение: хранилище, кэш, публикацию
// событий, сервисы и маршруты.
package focusbackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/focus-backend/internal/cache"
	"github.com/magabrotheeeer/focus-backend/internal/config"
	"github.com/magabrotheeeer/focus-backend/internal/http/handlers/health"
	"github.com/magabrotheeeer/focus-backend/internal/lib/password"
	"github.com/magabrotheeeer/focus-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/metrics"
	"github.com/magabrotheeeer/focus-backend/internal/migrations"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
	"github.com/magabrotheeeer/focus-backend/internal/services/avatar"
	"github.com/magabrotheeeer/focus-backend/internal/storage/repository"
)

// App - собранное приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	amqp   *amqp.Connection
}

// New подключает зависимости, применяет миграции, заполняет справочник
// аватаров и готовит HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "focusbackend.New"

	app := &App{logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	app.db, err = repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(app.db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = app.db.CheckDatabaseReady(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var events account.Events = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		app.amqp, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(app.amqp, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)
	} else {
		logger.Warn("rabbitmq url is empty, avatar events are not published")
	}

	m := metrics.New()

	catalog := avatar.NewCatalog(app.db, logger)
	if err = catalog.Seed(ctx, avatar.DefaultSeed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accounts := account.NewService(
		app.db,
		catalog,
		password.NewHasher(cfg.BcryptCost),
		logger,
		account.WithCache(app.cache, cfg.RedisConnection.ProfileTTL),
		account.WithEvents(events),
		account.WithMetrics(m),
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, accounts, catalog, m,
		health.Check{Name: "postgres", Pinger: app.db},
		health.Check{Name: "redis", Pinger: app.cache},
	)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis client", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}
