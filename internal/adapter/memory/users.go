package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/couchcryptid/stargazer-events/internal/domain"
)

// UserRepository implements domain.UserRepository in memory. Returned users
// are copies.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserRepository returns an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Register(_ context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.users[u.ID]; ok {
		return clone(cur), nil
	}
	stored := clone(&u)
	r.users[u.ID] = &stored
	return clone(&stored), nil
}

func (r *UserRepository) Get(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return clone(u), nil
}

// List returns users sorted by id.
func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) SetSettings(_ context.Context, id string, s domain.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Settings = &s
	return nil
}

func (r *UserRepository) AppendEvent(_ context.Context, id string, e domain.UserEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Events = append(u.Events, e)
	return nil
}

func (r *UserRepository) RemoveEvent(_ context.Context, id, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	i := slices.IndexFunc(u.Events, func(e domain.UserEvent) bool { return e.ID == eventID })
	if i < 0 {
		return domain.ErrNotFound
	}
	u.Events = slices.Delete(u.Events, i, i+1)
	return nil
}

func clone(u *domain.User) domain.User {
	out := *u
	if u.Settings != nil {
		s := *u.Settings
		out.Settings = &s
	}
	out.Events = slices.Clone(u.Events)
	return out
}
