package settings_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/adapter/memory"
	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/couchcryptid/stargazer-events/internal/settings"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.February, 2, 8, 0, 0, 0, time.UTC)

type stubEvents map[string]domain.AstronomicalEvent

func (s stubEvents) GetByID(_ context.Context, id string) (domain.AstronomicalEvent, error) {
	e, ok := s[id]
	if !ok {
		return domain.AstronomicalEvent{}, domain.ErrNotFound
	}
	return e, nil
}

type stubGeocoder struct {
	forward domain.GeocodingResult
	reverse domain.GeocodingResult
	err     error
	calls   int
}

func (g *stubGeocoder) ForwardGeocode(context.Context, string) (domain.GeocodingResult, error) {
	g.calls++
	return g.forward, g.err
}

func (g *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	g.calls++
	return g.reverse, g.err
}

func newService(t *testing.T, geo domain.Geocoder, catalogue stubEvents) *settings.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return settings.NewService(memory.NewUserRepository(), catalogue, geo, clockwork.NewFakeClockAt(now), logger, time.Second)
}

func TestGetSettings(t *testing.T) {
	svc := newService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.GetSettings(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RegisterUser(ctx, "u1", "Ada", "ada@example.com")
	require.NoError(t, err)

	got, err := svc.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}

func TestPutSettings(t *testing.T) {
	svc := newService(t, nil, nil)
	ctx := context.Background()

	in := domain.UserSettings{Name: "Ada", Latitude: 40, Longitude: -74, NotifyEmail: true, Email: "ada@example.com"}

	_, err := svc.PutSettings(ctx, "u1", in)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no auto-create")

	_, err = svc.RegisterUser(ctx, "u1", "Ada", "")
	require.NoError(t, err)

	saved, err := svc.PutSettings(ctx, "u1", in)
	require.NoError(t, err)
	assert.Equal(t, now, saved.LastUpdated)
	assert.Equal(t, domain.ThemeSystem, saved.Theme)
	assert.Equal(t, domain.LeadTime24h, saved.NotifyFrequency)

	got, err := svc.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestPutSettings_RejectsBeforePersisting(t *testing.T) {
	svc := newService(t, nil, nil)
	ctx := context.Background()
	_, err := svc.RegisterUser(ctx, "u1", "", "")
	require.NoError(t, err)

	_, err = svc.PutSettings(ctx, "u1", domain.UserSettings{NotifyPhone: true, Phone: "5551234567"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}

func TestPutSettings_ResolvesAddress(t *testing.T) {
	geo := &stubGeocoder{forward: domain.GeocodingResult{Lat: 30.2672, Lon: -97.7431, FormattedAddress: "Austin, Texas, United States"}}
	svc := newService(t, geo, nil)
	ctx := context.Background()
	_, err := svc.RegisterUser(ctx, "u1", "", "")
	require.NoError(t, err)

	saved, err := svc.PutSettings(ctx, "u1", domain.UserSettings{Address: "austin tx"})
	require.NoError(t, err)
	assert.InDelta(t, 30.2672, saved.Latitude, 1e-9)
	assert.InDelta(t, -97.7431, saved.Longitude, 1e-9)
	assert.Equal(t, "Austin, Texas, United States", saved.Address)
}

func TestPutSettings_AddressFailures(t *testing.T) {
	ctx := context.Background()

	noGeo := newService(t, nil, nil)
	_, _ = noGeo.RegisterUser(ctx, "u1", "", "")
	_, err := noGeo.PutSettings(ctx, "u1", domain.UserSettings{Address: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	failing := newService(t, &stubGeocoder{err: errors.New("timeout")}, nil)
	_, _ = failing.RegisterUser(ctx, "u1", "", "")
	_, err = failing.PutSettings(ctx, "u1", domain.UserSettings{Address: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	empty := newService(t, &stubGeocoder{}, nil)
	_, _ = empty.RegisterUser(ctx, "u1", "", "")
	_, err = empty.PutSettings(ctx, "u1", domain.UserSettings{Address: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPutSettings_ReverseLookupIsBestEffort(t *testing.T) {
	geo := &stubGeocoder{err: errors.New("rate limited")}
	svc := newService(t, geo, nil)
	ctx := context.Background()
	_, _ = svc.RegisterUser(ctx, "u1", "", "")

	saved, err := svc.PutSettings(ctx, "u1", domain.UserSettings{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	assert.Empty(t, saved.Address)
	assert.Equal(t, 1, geo.calls)
}

func TestUserEvents(t *testing.T) {
	catalogue := stubEvents{
		"astro-1": {
			ID:          "astro-1",
			Name:        "Blue Supermoon",
			Description: "The Blue Supermoon will make the Moon appear larger and brighter than usual.",
			StartDate:   now.Add(36 * time.Hour),
			EndDate:     now.Add(60 * time.Hour),
			Location:    domain.NewLocation(-33.9, 18.4),
		},
	}
	svc := newService(t, nil, catalogue)
	ctx := context.Background()

	_, err := svc.AddUserEvent(ctx, "u1", domain.UserEvent{Time: now})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RegisterUser(ctx, "u1", "Ada", "")
	require.NoError(t, err)

	list, err := svc.ListUserEvents(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	added, err := svc.AddUserEvent(ctx, "u1", domain.UserEvent{Name: "Backyard session", Latitude: 10, Longitude: 20, Time: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, now, added.CreatedAt)

	saved, err := svc.SaveAstronomicalEvent(ctx, "u1", "astro-1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Supermoon", saved.Name)
	assert.InDelta(t, -33.9, saved.Latitude, 1e-9)
	assert.InDelta(t, 18.4, saved.Longitude, 1e-9)
	assert.Equal(t, now.Add(36*time.Hour), saved.Time)

	_, err = svc.SaveAstronomicalEvent(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err = svc.ListUserEvents(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, added.ID, list[0].ID)

	require.NoError(t, svc.RemoveUserEvent(ctx, "u1", added.ID))
	assert.ErrorIs(t, svc.RemoveUserEvent(ctx, "u1", added.ID), domain.ErrNotFound)

	_, err = svc.AddUserEvent(ctx, "u1", domain.UserEvent{Latitude: 100, Time: now})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegisterUser_RequiresID(t *testing.T) {
	_, err := newService(t, nil, nil).RegisterUser(context.Background(), "", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
