package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/couchcryptid/stargazer-events/internal/observability"
)

// Users is the user lookup the notification pass needs.
type Users interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// Catalogue supplies astronomical events for users who opted into them.
type Catalogue interface {
	GetAll(ctx context.Context) ([]domain.AstronomicalEvent, error)
	Near(ctx context.Context, lat, lon, radiusKm float64) ([]domain.AstronomicalEvent, error)
}

// Service runs notification passes: select eligible events per user with
// the policy, then dispatch.
type Service struct {
	users      Users
	catalogue  Catalogue
	policy     *domain.Policy
	dispatcher *Dispatcher
	nearbyKm   float64
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewService creates the notification pass. With nearbyKm > 0, catalogue
// events within that radius of a user's home are candidates too. catalogue
// may be nil.
func NewService(users Users, catalogue Catalogue, policy *domain.Policy, dispatcher *Dispatcher, nearbyKm float64, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		users:      users,
		catalogue:  catalogue,
		policy:     policy,
		dispatcher: dispatcher,
		nearbyKm:   nearbyKm,
		logger:     logger,
		metrics:    metrics,
	}
}

// NotifyAll runs one pass over every user.
func (s *Service) NotifyAll(ctx context.Context) ([]Result, error) {
	start := time.Now()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("notification pass: %w", err)
	}
	users = s.withCatalogue(ctx, users)

	candidates := s.policy.SelectNotifiableUsers(users)
	results := s.dispatcher.NotifyAll(ctx, candidates)

	s.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("notification pass complete", "users", len(users), "notified", len(results))
	return results, nil
}

// NotifyUser runs the pass for a single user.
func (s *Service) NotifyUser(ctx context.Context, id string) (Result, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("notify %s: %w", id, err)
	}
	if u.Settings == nil {
		return Result{UserID: id, Name: domain.DisplayName(u)}, fmt.Errorf("notify %s: %w", id, domain.ErrSettingsIncomplete)
	}
	users := s.withCatalogue(ctx, []domain.User{u})

	candidates := s.policy.SelectNotifiableUsers(users)
	if len(candidates) == 0 {
		return Result{UserID: id, Name: domain.DisplayName(u), Message: domain.NoUpcomingEventsMessage}, nil
	}
	return s.dispatcher.Dispatch(ctx, candidates[0])
}

// withCatalogue appends catalogue events to the personal lists of users who
// asked for all events or who are near one. Lookup failures are logged and
// the personal lists are used as they are.
func (s *Service) withCatalogue(ctx context.Context, users []domain.User) []domain.User {
	if s.catalogue == nil {
		return users
	}

	var all []domain.AstronomicalEvent
	var allLoaded bool
	for i, u := range users {
		if u.Settings == nil {
			continue
		}

		var extra []domain.AstronomicalEvent
		switch {
		case u.Settings.NotifyAll:
			if !allLoaded {
				list, err := s.catalogue.GetAll(ctx)
				if err != nil {
					s.logger.Warn("catalogue lookup failed", "error", err)
				}
				all, allLoaded = list, true
			}
			extra = all
		case s.nearbyKm > 0 && (u.Settings.Latitude != 0 || u.Settings.Longitude != 0):
			list, err := s.catalogue.Near(ctx, u.Settings.Latitude, u.Settings.Longitude, s.nearbyKm)
			if err != nil {
				s.logger.Warn("nearby lookup failed", "user_id", u.ID, "error", err)
				continue
			}
			extra = list
		}
		if len(extra) > 0 {
			users[i].Events = mergeEvents(u.Events, extra)
		}
	}
	return users
}

// mergeEvents appends catalogue events not already saved, matching on
// name and time.
func mergeEvents(personal []domain.UserEvent, extra []domain.AstronomicalEvent) []domain.UserEvent {
	type key struct {
		name string
		at   int64
	}
	seen := make(map[key]bool, len(personal))
	for _, e := range personal {
		seen[key{e.Name, e.Time.UnixMilli()}] = true
	}

	out := append([]domain.UserEvent(nil), personal...)
	for _, e := range extra {
		k := key{e.Name, e.StartDate.UnixMilli()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, domain.UserEvent{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Latitude:    e.Location.Lat(),
			Longitude:   e.Location.Lon(),
			Time:        e.StartDate,
		})
	}
	return out
}
