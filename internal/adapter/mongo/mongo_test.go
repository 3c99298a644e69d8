package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEventDoc_RoundTripKeepsCoordinateOrder(t *testing.T) {
	start := time.Date(2026, 10, 20, 3, 0, 0, 0, time.UTC)
	e := domain.AstronomicalEvent{
		ID:          "evt-1",
		Type:        domain.SolarEclipse,
		Name:        "Annular Eclipse",
		StartDate:   start,
		EndDate:     start.Add(3 * time.Hour),
		Location:    domain.NewLocation(-20.5, 45.25),
		Description: "The Annular Eclipse ...",
		Visibility:  "Naked Eye",
		Intensity:   domain.IntensityHigh,
		Frequency:   "Rare",
	}

	d := toEventDoc(e)
	assert.Equal(t, []float64{45.25, -20.5}, d.Location.Coordinates)

	raw, err := bson.Marshal(d)
	require.NoError(t, err)
	var back eventDoc
	require.NoError(t, bson.Unmarshal(raw, &back))

	if diff := cmp.Diff(e, back.domain()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUserDoc_RoundTrip(t *testing.T) {
	created := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	u := domain.User{
		ID:    "auth0|abc",
		Name:  "Ada",
		Email: "ada@example.com",
		Settings: &domain.UserSettings{
			Name:            "Ada",
			Latitude:        51.5,
			Longitude:       -0.12,
			Theme:           domain.ThemeDark,
			NotifyEmail:     true,
			NotifyFrequency: domain.LeadTime6h,
			Email:           "ada@example.com",
			LastUpdated:     created,
		},
		Events: []domain.UserEvent{{
			ID:        "u-1",
			Name:      "Backyard session",
			Latitude:  51.5,
			Longitude: -0.12,
			Time:      created.Add(72 * time.Hour),
			CreatedAt: created,
		}},
		CreatedAt: created,
	}

	raw, err := bson.Marshal(toUserDoc(u))
	require.NoError(t, err)
	var back userDoc
	require.NoError(t, bson.Unmarshal(raw, &back))

	if diff := cmp.Diff(u, back.domain()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUserDoc_NoSettingsStaysNil(t *testing.T) {
	raw, err := bson.Marshal(toUserDoc(domain.User{ID: "u"}))
	require.NoError(t, err)
	var back userDoc
	require.NoError(t, bson.Unmarshal(raw, &back))

	got := back.domain()
	assert.Nil(t, got.Settings)
	assert.NotNil(t, got.Events)
}

func TestCenterSphereRadians(t *testing.T) {
	assert.InDelta(t, 0.0015696123, centerSphereRadians(10), 1e-9)
	assert.Zero(t, centerSphereRadians(0))
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr("op", nil))
	assert.ErrorIs(t, mapErr("get", mongo.ErrNoDocuments), domain.ErrNotFound)

	err := mapErr("list", fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := mapErr("insert", errors.New("duplicate key"))
	assert.NotErrorIs(t, other, domain.ErrTransient)
	assert.Contains(t, other.Error(), "mongo insert")
}
