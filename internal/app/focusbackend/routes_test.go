package focusbackend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/focus-backend/internal/lib/password"
	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
	"github.com/magabrotheeeer/focus-backend/internal/metrics"
	"github.com/magabrotheeeer/focus-backend/internal/models"
	"github.com/magabrotheeeer/focus-backend/internal/services/account"
	"github.com/magabrotheeeer/focus-backend/internal/services/avatar"
	"github.com/magabrotheeeer/focus-backend/internal/storage/repository"
)

// memStore - хранилище в памяти для пользователей и аватаров.
type memStore struct {
	mu      sync.Mutex
	users   map[int64]models.User
	avatars []models.Avatar
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]models.User)}
}

func (s *memStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := s.match(func(u models.User) bool { return u.Email == email })
	return ok, nil
}

func (s *memStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := s.match(func(u models.User) bool { return u.Username == username })
	return ok, nil
}

func (s *memStore) FindByEmail(_ context.Context, email string) (models.User, bool, error) {
	u, ok := s.match(func(u models.User) bool { return u.Email == email })
	return u, ok, nil
}

func (s *memStore) FindByUsername(_ context.Context, username string) (models.User, bool, error) {
	u, ok := s.match(func(u models.User) bool { return u.Username == username })
	return u, ok, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *memStore) match(f func(models.User) bool) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if f(u) {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *memStore) Save(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		user.ID = int64(len(s.users) + 1)
	} else if _, ok := s.users[user.ID]; !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *memStore) AddFocusSession(_ context.Context, id int64, minutes int) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false, nil
	}
	u.NrFocusSessions++
	u.NrFocusSessionsToday++
	u.TotalFocusTime += minutes
	s.users[id] = u
	return u, true, nil
}

func (s *memStore) SetAvatar(_ context.Context, id, avatarID int64) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false, nil
	}
	for _, a := range s.avatars {
		if a.ID == avatarID {
			u.Avatar = a
			s.users[id] = u
			return u, true, nil
		}
	}
	return models.User{}, false, repository.ErrAvatarMissing
}

func (s *memStore) UpdatePassword(_ context.Context, id int64, passwordHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return true, nil
}

func (s *memStore) UpdateUsername(_ context.Context, id int64, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	for other, existing := range s.users {
		if other != id && existing.Username == username {
			return false, repository.ErrUsernameTaken
		}
	}
	u.Username = username
	s.users[id] = u
	return true, nil
}

func (s *memStore) CountAvatars(context.Context) (int, error) { return len(s.avatars), nil }

func (s *memStore) FindAvatarByUnlockCriteria(_ context.Context, criteria int) (models.Avatar, bool, error) {
	for _, a := range s.avatars {
		if a.UnlockCriteria == criteria {
			return a, true, nil
		}
	}
	return models.Avatar{}, false, nil
}

func (s *memStore) FindBestAvatar(_ context.Context, sessions int) (models.Avatar, bool, error) {
	var best models.Avatar
	found := false
	for _, a := range s.avatars {
		if a.UnlockCriteria <= sessions && (!found || a.UnlockCriteria > best.UnlockCriteria) {
			best, found = a, true
		}
	}
	return best, found, nil
}

func (s *memStore) CreateAvatarIfAbsent(_ context.Context, a models.Avatar) (models.Avatar, error) {
	for _, existing := range s.avatars {
		if existing.Name == a.Name {
			return existing, nil
		}
	}
	a.ID = int64(len(s.avatars) + 1)
	s.avatars = append(s.avatars, a)
	return a, nil
}

func (s *memStore) ListAvatars(context.Context) ([]models.Avatar, error) {
	out := append([]models.Avatar(nil), s.avatars...)
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockCriteria < out[j].UnlockCriteria })
	return out, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := newMemStore()
	log := sl.Discard()
	m := metrics.New()

	catalog := avatar.NewCatalog(store, log)
	require.NoError(t, catalog.Seed(context.Background(), avatar.DefaultSeed))
	accounts := account.NewService(store, catalog, password.NewHasher(4), log, account.WithMetrics(m))

	r := chi.NewRouter()
	RegisterRoutes(r, log, accounts, catalog, m)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRoutes_UserJourney(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/users/register", "application/json",
		strings.NewReader(`{"email":"a@x.com","password":"secret123","username":"alice"}`))
	require.NoError(t, err)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), created["id"])

	resp, err = srv.Client().Post(srv.URL+"/api/users/register", "application/json",
		strings.NewReader(`{"email":"a@x.com","password":"secret456","username":"bob"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = srv.Client().Post(srv.URL+"/api/users/signin", "application/json",
		strings.NewReader(`{"email":"a@x.com","password":"wrong"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for i := 0; i < 10; i++ {
		resp, err = srv.Client().Post(srv.URL+"/api/users/1/focus-sessions", "application/json",
			strings.NewReader(`{"durationMinutes":25}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err = srv.Client().Post(srv.URL+"/api/users/profile?userId=1", "application/json", nil)
	require.NoError(t, err)
	var profile []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	resp.Body.Close()
	assert.Equal(t, []string{"alice", "a@x.com", "10", "250", "10", "0", "avatar2"}, profile)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/users/change-username/1",
		strings.NewReader(`{"newUsername":"alicia","password":"secret123"}`))
	require.NoError(t, err)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/api/avatars?userId=1")
	require.NoError(t, err)
	var avatars []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&avatars))
	resp.Body.Close()
	require.Len(t, avatars, 3)
	assert.Equal(t, true, avatars[1]["unlocked"])
	assert.Equal(t, false, avatars[2]["unlocked"])

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	exposed := readBody(t, resp)
	assert.Contains(t, exposed, `focus_backend_avatar_unlocks_total{avatar="PineCone"} 1`)
	assert.Contains(t, exposed, `focus_backend_account_operations_total{operation="register",result="duplicate_email"} 1`)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), `focus_backend_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
