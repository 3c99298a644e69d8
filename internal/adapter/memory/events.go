// Package memory provides in-process repositories used by tests and by
// STORE_BACKEND=memory deployments.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/paulmach/orb"
)

// EventRepository implements domain.EventRepository in memory. List returns
// events in insertion order.
type EventRepository struct {
	mu     sync.RWMutex
	events []domain.AstronomicalEvent
}

// NewEventRepository returns an empty repository.
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

func (r *EventRepository) Insert(_ context.Context, events ...domain.AstronomicalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *EventRepository) List(_ context.Context) ([]domain.AstronomicalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.events), nil
}

func (r *EventRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.events)), nil
}

func (r *EventRepository) Get(_ context.Context, id string) (domain.AstronomicalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.AstronomicalEvent{}, domain.ErrNotFound
}

// Near filters by great-circle distance, boundary included.
func (r *EventRepository) Near(_ context.Context, lat, lon, radiusKm float64) ([]domain.AstronomicalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	center := orb.Point{lon, lat}
	var out []domain.AstronomicalEvent
	for _, e := range r.events {
		if domain.DistanceKm(center, e.Location.Coordinates) <= radiusKm {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *EventRepository) DeleteEndedBefore(_ context.Context, t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.events)
	r.events = slices.DeleteFunc(r.events, func(e domain.AstronomicalEvent) bool {
		return e.Expired(t)
	})
	return int64(before - len(r.events)), nil
}

func (r *EventRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.events)
	r.events = nil
	return int64(n), nil
}
