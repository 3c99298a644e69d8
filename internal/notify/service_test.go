package notify

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/adapter/memory"
	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var passNow = time.Date(2025, time.July, 4, 20, 0, 0, 0, time.UTC)

type userRepoSource struct{ repo *memory.UserRepository }

func (u userRepoSource) ListUsers(ctx context.Context) ([]domain.User, error) { return u.repo.List(ctx) }
func (u userRepoSource) GetUser(ctx context.Context, id string) (domain.User, error) {
	return u.repo.Get(ctx, id)
}

type catalogueSource struct{ repo *memory.EventRepository }

func (c catalogueSource) GetAll(ctx context.Context) ([]domain.AstronomicalEvent, error) {
	return c.repo.List(ctx)
}

func (c catalogueSource) Near(ctx context.Context, lat, lon, km float64) ([]domain.AstronomicalEvent, error) {
	return c.repo.Near(ctx, lat, lon, km)
}

func newPass(t *testing.T, nearbyKm float64) (*Service, *memory.UserRepository, *memory.EventRepository, *fakeMailer) {
	t.Helper()
	users := memory.NewUserRepository()
	catalogue := memory.NewEventRepository()
	mailer := &fakeMailer{}
	d, metrics := newTestDispatcher(mailer, 1)
	policy := domain.NewPolicy(clockwork.NewFakeClockAt(passNow))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(userRepoSource{users}, catalogueSource{catalogue}, policy, d, nearbyKm, logger, metrics)
	return svc, users, catalogue, mailer
}

func register(t *testing.T, repo *memory.UserRepository, id string, s *domain.UserSettings, events ...domain.UserEvent) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.Register(ctx, domain.User{ID: id, Name: id})
	require.NoError(t, err)
	if s != nil {
		require.NoError(t, repo.SetSettings(ctx, id, *s))
	}
	for _, e := range events {
		require.NoError(t, repo.AppendEvent(ctx, id, e))
	}
}

func TestService_NotifyAll(t *testing.T) {
	svc, users, _, mailer := newPass(t, 0)

	soon := domain.UserEvent{ID: "a", Name: "Stargazing", Time: passNow.Add(3 * time.Hour)}
	far := domain.UserEvent{ID: "b", Name: "Eclipse", Time: passNow.Add(72 * time.Hour)}

	register(t, users, "u1", &domain.UserSettings{NotifyEmail: true, Email: "u1@example.com", NotifyFrequency: domain.LeadTime6h}, soon, far)
	register(t, users, "u2", &domain.UserSettings{NotifyEmail: true, Email: "u2@example.com", NotifyFrequency: domain.LeadTime1h}, soon)
	register(t, users, "u3", nil, soon)

	results, err := svc.NotifyAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "u1", results[0].UserID)
	assert.True(t, *results[0].EmailSent)
	assert.Equal(t, "u3", results[1].UserID)
	assert.NotEmpty(t, results[1].Error)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "Stargazing")
	assert.NotContains(t, mailer.sent[0].Body, "Eclipse")
}

func TestService_NotifyUser(t *testing.T) {
	svc, users, _, _ := newPass(t, 0)
	ctx := context.Background()

	_, err := svc.NotifyUser(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	register(t, users, "bare", nil)
	_, err = svc.NotifyUser(ctx, "bare")
	assert.ErrorIs(t, err, domain.ErrSettingsIncomplete)

	register(t, users, "u1", &domain.UserSettings{NotifyEmail: true, Email: "u1@example.com", NotifyFrequency: domain.LeadTime24h})
	res, err := svc.NotifyUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.NoUpcomingEventsMessage, res.Message)

	require.NoError(t, users.AppendEvent(ctx, "u1", domain.UserEvent{ID: "x", Name: "Night walk", Time: passNow.Add(2 * time.Hour)}))
	res, err = svc.NotifyUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, *res.EmailSent)
}

func TestService_NearbyCatalogueEvents(t *testing.T) {
	svc, users, catalogue, mailer := newPass(t, 100)
	ctx := context.Background()

	near := domain.AstronomicalEvent{ID: "near", Name: "Comet Encke", StartDate: passNow.Add(5 * time.Hour), EndDate: passNow.Add(48 * time.Hour), Location: domain.NewLocation(48.9, 2.4)}
	far := domain.AstronomicalEvent{ID: "far", Name: "Comet Halley", StartDate: passNow.Add(5 * time.Hour), EndDate: passNow.Add(48 * time.Hour), Location: domain.NewLocation(60, 100)}
	require.NoError(t, catalogue.Insert(ctx, near, far))

	saved := domain.UserEvent{ID: "dup", Name: "Comet Encke", Time: near.StartDate}
	register(t, users, "paris", &domain.UserSettings{Latitude: 48.86, Longitude: 2.35, NotifyEmail: true, Email: "p@example.com", NotifyFrequency: domain.LeadTime12h}, saved)
	register(t, users, "everything", &domain.UserSettings{NotifyAll: true, NotifyEmail: true, Email: "e@example.com", NotifyFrequency: domain.LeadTime12h})

	results, err := svc.NotifyAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	bodies := map[string]string{}
	for _, m := range mailer.sent {
		bodies[m.To] = m.Body
	}
	assert.Equal(t, 1, strings.Count(bodies["p@example.com"], "Comet Encke"), "saved copy is not duplicated")
	assert.NotContains(t, bodies["p@example.com"], "Comet Halley")
	assert.Contains(t, bodies["e@example.com"], "Comet Encke")
	assert.Contains(t, bodies["e@example.com"], "Comet Halley")
}
