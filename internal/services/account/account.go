// Package account реализует бизнес-логику учётных записей: регистрацию,
// вход, профиль, смену пароля и имени, учёт фокус-сессий и смену аватара.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/models"
	"github.com/magabrotheeeer/focus-backend/internal/services/avatar"
	"github.com/magabrotheeeer/focus-backend/internal/storage/repository"
)

// Directory - хранилище учётных записей.
type Directory interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindByEmail(ctx context.Context, email string) (models.User, bool, error)
	FindByUsername(ctx context.Context, username string) (models.User, bool, error)
	FindByID(ctx context.Context, id int64) (models.User, bool, error)
	Save(ctx context.Context, user models.User) (models.User, error)
	AddFocusSession(ctx context.Context, id int64, minutes int) (models.User, bool, error)
	SetAvatar(ctx context.Context, id, avatarID int64) (models.User, bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error)
	UpdateUsername(ctx context.Context, id int64, username string) (bool, error)
}

// Avatars - справочник аватаров.
type Avatars interface {
	DefaultAvatar(ctx context.Context) (models.Avatar, error)
	BestFor(ctx context.Context, sessions int) (models.Avatar, error)
}

// Hasher хэширует и проверяет пароли.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Cache хранит собранные профили.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Events публикует доменные события.
type Events interface {
	PublishAvatarUnlocked(ctx context.Context, user models.User) error
}

// Metrics считает результаты операций и смены аватаров.
type Metrics interface {
	ObserveOperation(operation, result string)
	AvatarUnlocked(avatar string)
}

// Option настраивает Service.
type Option func(*Service)

// WithCache включает кэширование профилей на ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.profileTTL = ttl
	}
}

// WithEvents задаёт публикатор событий.
func WithEvents(e Events) Option {
	return func(s *Service) {
		s.events = e
	}
}

// WithMetrics задаёт сборщик метрик.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service оркестрирует операции над учётными записями.
type Service struct {
	dir        Directory
	avatars    Avatars
	hasher     Hasher
	cache      Cache
	profileTTL time.Duration
	events     Events
	metrics    Metrics
	log        *slog.Logger
}

// FocusResult - итог записи фокус-сессии.
type FocusResult struct {
	User          models.User
	AvatarChanged bool
}

// NewService создаёт Service. Без опций кэш, события и метрики отключены.
func NewService(dir Directory, avatars Avatars, hasher Hasher, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		dir:     dir,
		avatars: avatars,
		hasher:  hasher,
		events:  noopEvents{},
		metrics: noopMetrics{},
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создаёт пользователя с аватаром по умолчанию и нулевой статистикой.
// Почта проверяется раньше имени, поэтому при двойном конфликте
// возвращается ErrDuplicateEmail.
func (s *Service) Register(ctx context.Context, email, password, username string) (user models.User, err error) {
	const op = "account.Register"
	defer s.observe("register", &err)

	exists, err := s.dir.ExistsByEmail(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return models.User{}, ErrDuplicateEmail
	}
	exists, err = s.dir.ExistsByUsername(ctx, username)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return models.User{}, ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, wrap(KindInvalidInput, "cannot hash password", err)
	}
	def, err := s.avatars.DefaultAvatar(ctx)
	if err != nil {
		if errors.Is(err, avatar.ErrNoDefaultAvatar) {
			return models.User{}, wrap(KindConfiguration, "default avatar is not configured", err)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.dir.Save(ctx, models.User{
		Email:          email,
		Username:       username,
		PasswordHash:   hash,
		FocusTimeToday: "0",
		Avatar:         def,
	})
	if err != nil {
		return models.User{}, s.translateSaveError(op, err)
	}
	s.log.Info("user registered", slog.Int64("user_id", saved.ID))
	return withoutSecret(saved), nil
}

// SignIn проверяет почту и пароль. Неизвестная почта и неверный пароль
// различаются видом ошибки.
func (s *Service) SignIn(ctx context.Context, email, password string) (user models.User, err error) {
	const op = "account.SignIn"
	defer s.observe("signin", &err)

	u, found, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.User{}, ErrUserNotFound
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}
	return withoutSecret(u), nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id int64) (models.User, error) {
	const op = "account.GetUser"
	u, err := s.findByID(ctx, op, id)
	if err != nil {
		return models.User{}, err
	}
	return withoutSecret(u), nil
}

// GetProfile возвращает профиль пользователя. Профиль читается из кэша,
// если он подключён; промах кэша идёт в хранилище.
func (s *Service) GetProfile(ctx context.Context, id int64) (profile models.Profile, err error) {
	const op = "account.GetProfile"
	defer s.observe("profile", &err)

	key := profileKey(id)
	if s.cache != nil {
		found, cerr := s.cache.Get(ctx, key, &profile)
		if cerr != nil {
			s.log.Warn("profile cache read failed", slog.String("key", key), sl.Err(cerr))
		}
		if found && cerr == nil {
			return profile, nil
		}
	}

	u, err := s.findByID(ctx, op, id)
	if err != nil {
		return models.Profile{}, err
	}
	profile = models.ProfileOf(u)

	if s.cache != nil {
		if cerr := s.cache.Set(ctx, key, profile, s.profileTTL); cerr != nil {
			s.log.Warn("profile cache write failed", slog.String("key", key), sl.Err(cerr))
		}
	}
	return profile, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) (err error) {
	const op = "account.ChangePassword"
	defer s.observe("change_password", &err)

	u, err := s.findByID(ctx, op, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(oldPassword, u.PasswordHash) {
		return ErrIncorrectOldPassword
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return wrap(KindInvalidInput, "cannot hash password", err)
	}
	found, err := s.dir.UpdatePassword(ctx, id, hash)
	if err != nil {
		return s.translateSaveError(op, err)
	}
	if !found {
		return ErrUserNotFound
	}
	s.invalidateProfile(ctx, id)
	return nil
}

// ChangeUsername меняет имя пользователя после проверки пароля.
// Смена на текущее имя ничего не делает и считается успешной.
func (s *Service) ChangeUsername(ctx context.Context, id int64, newUsername, password string) (err error) {
	const op = "account.ChangeUsername"
	defer s.observe("change_username", &err)

	u, err := s.findByID(ctx, op, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return ErrIncorrectPassword
	}
	if u.Username == newUsername {
		return nil
	}
	holder, found, err := s.dir.FindByUsername(ctx, newUsername)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if found && holder.ID != u.ID {
		return ErrDuplicateUsername
	}

	found, err = s.dir.UpdateUsername(ctx, id, newUsername)
	if err != nil {
		return s.translateSaveError(op, err)
	}
	if !found {
		return ErrUserNotFound
	}
	s.invalidateProfile(ctx, id)
	return nil
}

// UpdateAvatarForUser назначает пользователю лучший открытый аватар.
// Записывается только avatar_id и только если аватар действительно меняется.
// Возвращается строка после записи, в ней учтены сессии, засчитанные параллельно.
func (s *Service) UpdateAvatarForUser(ctx context.Context, user models.User) (models.User, bool, error) {
	const op = "account.UpdateAvatarForUser"

	best, err := s.avatars.BestFor(ctx, user.NrFocusSessions)
	if err != nil {
		if errors.Is(err, avatar.ErrNoDefaultAvatar) {
			return user, false, wrap(KindConfiguration, "default avatar is not configured", err)
		}
		return user, false, fmt.Errorf("%s: %w", op, err)
	}
	if best.ID == user.Avatar.ID {
		return user, false, nil
	}

	saved, found, err := s.dir.SetAvatar(ctx, user.ID, best.ID)
	if err != nil {
		return user, false, s.translateSaveError(op, err)
	}
	if !found {
		return user, false, ErrUserNotFound
	}
	s.invalidateProfile(ctx, user.ID)
	s.metrics.AvatarUnlocked(best.Name)
	s.log.Info("avatar changed",
		slog.Int64("user_id", saved.ID),
		slog.String("avatar", best.Name),
		slog.Int("nr_focus_sessions", saved.NrFocusSessions),
	)
	return withoutSecret(saved), true, nil
}

// RecordFocusSession засчитывает завершённую фокус-сессию длительностью
// minutes и при необходимости открывает новый аватар.
func (s *Service) RecordFocusSession(ctx context.Context, id int64, minutes int) (result FocusResult, err error) {
	const op = "account.RecordFocusSession"
	defer s.observe("focus_session", &err)

	if minutes < 1 {
		return FocusResult{}, &Error{Kind: KindInvalidInput, Msg: "duration must be at least one minute"}
	}
	u, found, err := s.dir.AddFocusSession(ctx, id, minutes)
	if err != nil {
		return FocusResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return FocusResult{}, ErrUserNotFound
	}
	s.invalidateProfile(ctx, id)

	u, changed, err := s.UpdateAvatarForUser(ctx, u)
	if err != nil {
		return FocusResult{}, err
	}
	if changed {
		if perr := s.events.PublishAvatarUnlocked(ctx, u); perr != nil {
			s.log.Error("failed to publish avatar unlocked event", slog.Int64("user_id", id), sl.Err(perr))
		}
	}
	return FocusResult{User: withoutSecret(u), AvatarChanged: changed}, nil
}

func (s *Service) findByID(ctx context.Context, op string, id int64) (models.User, error) {
	u, found, err := s.dir.FindByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) translateSaveError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return wrap(KindDuplicateEmail, ErrDuplicateEmail.Msg, err)
	case errors.Is(err, repository.ErrUsernameTaken):
		return wrap(KindDuplicateUsername, ErrDuplicateUsername.Msg, err)
	case errors.Is(err, repository.ErrUserNotFound):
		return wrap(KindUserNotFound, ErrUserNotFound.Msg, err)
	case errors.Is(err, repository.ErrAvatarMissing):
		return wrap(KindConfiguration, "avatar is missing from catalog", err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) invalidateProfile(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, profileKey(id)); err != nil {
		s.log.Warn("profile cache invalidation failed", slog.Int64("user_id", id), sl.Err(err))
	}
}

func (s *Service) observe(operation string, err *error) {
	result := "ok"
	if *err != nil {
		result = KindOf(*err).String()
	}
	s.metrics.ObserveOperation(operation, result)
}

func profileKey(id int64) string {
	return "profile:" + strconv.FormatInt(id, 10)
}

func withoutSecret(u models.User) models.User {
	u.PasswordHash = ""
	return u
}

type noopEvents struct{}

func (noopEvents) PublishAvatarUnlocked(context.Context, models.User) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string) {}
func (noopMetrics) AvatarUnlocked(string)           {}
