package memory

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	err := repo.SetSettings(ctx, "u1", domain.DefaultSettings())
	require.ErrorIs(t, err, domain.ErrNotFound)

	u, err := repo.Register(ctx, domain.User{ID: "u1", Name: "Ada", CreatedAt: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Nil(t, u.Settings)

	again, err := repo.Register(ctx, domain.User{ID: "u1", Name: "Someone else"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Name, "register keeps the existing record")

	require.NoError(t, repo.SetSettings(ctx, "u1", domain.UserSettings{Name: "Ada L"}))
	require.NoError(t, repo.AppendEvent(ctx, "u1", domain.UserEvent{ID: "e1"}))
	require.NoError(t, repo.AppendEvent(ctx, "u1", domain.UserEvent{ID: "e2"}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", got.Settings.Name)
	assert.Len(t, got.Events, 2)

	got.Settings.Name = "mutated"
	got.Events[0].ID = "mutated"
	fresh, _ := repo.Get(ctx, "u1")
	assert.Equal(t, "Ada L", fresh.Settings.Name)
	assert.Equal(t, "e1", fresh.Events[0].ID)

	require.NoError(t, repo.RemoveEvent(ctx, "u1", "e1"))
	assert.ErrorIs(t, repo.RemoveEvent(ctx, "u1", "e1"), domain.ErrNotFound)
	assert.ErrorIs(t, repo.RemoveEvent(ctx, "nobody", "e2"), domain.ErrNotFound)
	assert.ErrorIs(t, repo.AppendEvent(ctx, "nobody", domain.UserEvent{}), domain.ErrNotFound)
}

func TestUserRepository_ListSorted(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.Register(ctx, domain.User{ID: id})
		require.NoError(t, err)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a", users[0].ID)
	assert.Equal(t, "c", users[2].ID)
}
