package account_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/focus-backend/internal/models"
	"github.com/magabrotheeeer/focus-backend/internal/services/avatar"
	"github.com/magabrotheeeer/focus-backend/internal/storage/repository"
)

// memDirectory хранит пользователей в памяти и соблюдает уникальность
// почты и имени так же, как ограничения таблицы users.
type memDirectory struct {
	mu     sync.Mutex
	users  map[int64]models.User
	nextID int64
	writes int
}

func newMemDirectory() *memDirectory {
	return &memDirectory{users: make(map[int64]models.User)}
}

func (d *memDirectory) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, found, _ := d.find(func(u models.User) bool { return u.Email == email })
	return found, nil
}

func (d *memDirectory) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, found, _ := d.find(func(u models.User) bool { return u.Username == username })
	return found, nil
}

func (d *memDirectory) FindByEmail(_ context.Context, email string) (models.User, bool, error) {
	return d.find(func(u models.User) bool { return u.Email == email })
}

func (d *memDirectory) FindByUsername(_ context.Context, username string) (models.User, bool, error) {
	return d.find(func(u models.User) bool { return u.Username == username })
}

func (d *memDirectory) FindByID(_ context.Context, id int64) (models.User, bool, error) {
	return d.find(func(u models.User) bool { return u.ID == id })
}

func (d *memDirectory) find(match func(models.User) bool) (models.User, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]int64, 0, len(d.users))
	for id := range d.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if match(d.users[id]) {
			return d.users[id], true, nil
		}
	}
	return models.User{}, false, nil
}

func (d *memDirectory) Save(_ context.Context, user models.User) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, u := range d.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return models.User{}, repository.ErrEmailTaken
		}
		if u.Username == user.Username {
			return models.User{}, repository.ErrUsernameTaken
		}
	}
	if user.ID == 0 {
		d.nextID++
		user.ID = d.nextID
	} else if _, ok := d.users[user.ID]; !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	d.users[user.ID] = user
	d.writes++
	return user, nil
}

func (d *memDirectory) AddFocusSession(_ context.Context, id int64, minutes int) (models.User, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return models.User{}, false, nil
	}
	u.NrFocusSessions++
	u.NrFocusSessionsToday++
	u.TotalFocusTime += minutes
	d.users[id] = u
	return u, true, nil
}

func (d *memDirectory) SetAvatar(_ context.Context, id, avatarID int64) (models.User, bool, error) {
	var av models.Avatar
	for _, candidate := range defaultAvatars().list {
		if candidate.ID == avatarID {
			av = candidate
		}
	}
	if av.ID == 0 {
		return models.User{}, false, repository.ErrAvatarMissing
	}
	return d.modify(id, func(u *models.User) error {
		u.Avatar = av
		return nil
	})
}

func (d *memDirectory) UpdatePassword(_ context.Context, id int64, passwordHash string) (bool, error) {
	_, found, err := d.modify(id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
	return found, err
}

func (d *memDirectory) UpdateUsername(_ context.Context, id int64, username string) (bool, error) {
	_, found, err := d.modify(id, func(u *models.User) error {
		for other, existing := range d.users {
			if other != id && existing.Username == username {
				return repository.ErrUsernameTaken
			}
		}
		u.Username = username
		return nil
	})
	return found, err
}

// modify меняет одну запись под блокировкой, не затрагивая остальные поля.
func (d *memDirectory) modify(id int64, change func(u *models.User) error) (models.User, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return models.User{}, false, nil
	}
	if err := change(&u); err != nil {
		return models.User{}, false, err
	}
	d.users[id] = u
	d.writes++
	return u, true, nil
}

// staticAvatars выбирает аватар по тем же правилам, что и справочник.
type staticAvatars struct {
	list []models.Avatar
}

var (
	leaf     = models.Avatar{ID: 1, Name: "Leaf", ImageURL: "avatar1", UnlockCriteria: 0}
	pineCone = models.Avatar{ID: 2, Name: "PineCone", ImageURL: "avatar2", UnlockCriteria: 10}
	mushroom = models.Avatar{ID: 3, Name: "Mushroom", ImageURL: "avatar3", UnlockCriteria: 20}
)

func defaultAvatars() *staticAvatars {
	return &staticAvatars{list: []models.Avatar{leaf, pineCone, mushroom}}
}

func (a *staticAvatars) DefaultAvatar(context.Context) (models.Avatar, error) {
	for _, av := range a.list {
		if av.UnlockCriteria == 0 {
			return av, nil
		}
	}
	return models.Avatar{}, avatar.ErrNoDefaultAvatar
}

func (a *staticAvatars) BestFor(ctx context.Context, sessions int) (models.Avatar, error) {
	var best models.Avatar
	found := false
	for _, av := range a.list {
		if av.UnlockCriteria <= sessions && (!found || av.UnlockCriteria > best.UnlockCriteria) {
			best, found = av, true
		}
	}
	if !found {
		return a.DefaultAvatar(ctx)
	}
	return best, nil
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type EventsMock struct {
	mock.Mock
}

func (m *EventsMock) PublishAvatarUnlocked(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MetricsMock struct {
	mock.Mock
}

func (m *MetricsMock) ObserveOperation(operation, result string) {
	m.Called(operation, result)
}

func (m *MetricsMock) AvatarUnlocked(avatar string) {
	m.Called(avatar)
}
