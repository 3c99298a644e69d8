// Package settings manages user records: notification preferences, home
// location, and the personal event list.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// EventSource looks up catalogue events for SaveAstronomicalEvent.
type EventSource interface {
	GetByID(ctx context.Context, id string) (domain.AstronomicalEvent, error)
}

// Service implements the user/settings store operations.
type Service struct {
	repo     domain.UserRepository
	events   EventSource
	geocoder domain.Geocoder
	clock    clockwork.Clock
	logger   *slog.Logger
	timeout  time.Duration
}

// NewService creates a settings service. geocoder may be nil, in which case
// settings must always carry coordinates.
func NewService(repo domain.UserRepository, events EventSource, geocoder domain.Geocoder, clock clockwork.Clock, logger *slog.Logger, timeout time.Duration) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:     repo,
		events:   events,
		geocoder: geocoder,
		clock:    clock,
		logger:   logger,
		timeout:  timeout,
	}
}

// RegisterUser creates the user record on first sight and returns it.
func (s *Service) RegisterUser(ctx context.Context, id, name, email string) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.NewValidationError("userId", "is required")
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	u, err := s.repo.Register(ctx, domain.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Events:    []domain.UserEvent{},
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("register user %s: %w", id, err)
	}
	return u, nil
}

// GetUser returns the stored record.
func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetSettings returns the user's settings, or DefaultSettings when the user
// never saved any.
func (s *Service) GetSettings(ctx context.Context, id string) (domain.UserSettings, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.UserSettings{}, err
	}
	if u.Settings == nil {
		return domain.DefaultSettings(), nil
	}
	return *u.Settings, nil
}

// PutSettings validates and stores settings, stamping LastUpdated. An
// address without coordinates is resolved through the geocoder; coordinates
// without an address get a reverse lookup when a geocoder is present.
func (s *Service) PutSettings(ctx context.Context, id string, in domain.UserSettings) (domain.UserSettings, error) {
	if in.Theme == "" {
		in.Theme = domain.ThemeSystem
	}
	if in.NotifyFrequency == "" {
		in.NotifyFrequency = domain.DefaultSettings().NotifyFrequency
	}
	if err := domain.ValidateSettings(in); err != nil {
		return domain.UserSettings{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.resolveHome(ctx, &in); err != nil {
		return domain.UserSettings{}, err
	}

	in.LastUpdated = s.clock.Now().UTC()
	if err := s.repo.SetSettings(ctx, id, in); err != nil {
		return domain.UserSettings{}, fmt.Errorf("put settings for %s: %w", id, err)
	}
	s.logger.Info("settings updated", "user_id", id,
		"notify_email", in.NotifyEmail, "notify_phone", in.NotifyPhone, "lead_time", in.NotifyFrequency)
	return in, nil
}

func (s *Service) resolveHome(ctx context.Context, in *domain.UserSettings) error {
	hasCoords := in.Latitude != 0 || in.Longitude != 0
	switch {
	case !hasCoords && in.Address != "":
		if s.geocoder == nil {
			return domain.NewValidationError("latitude", "coordinates are required when address lookup is unavailable")
		}
		res, err := s.geocoder.ForwardGeocode(ctx, in.Address)
		if err != nil {
			s.logger.Warn("address lookup failed", "error", err)
			return domain.NewValidationError("address", "could not be resolved")
		}
		if res.FormattedAddress == "" {
			return domain.NewValidationError("address", "no matching place")
		}
		in.Latitude, in.Longitude = res.Lat, res.Lon
		in.Address = res.FormattedAddress
	case hasCoords && in.Address == "" && s.geocoder != nil:
		res, err := s.geocoder.ReverseGeocode(ctx, in.Latitude, in.Longitude)
		if err != nil {
			// A missing label is cosmetic; keep the coordinates.
			s.logger.Debug("reverse lookup failed", "error", err)
			return nil
		}
		in.Address = res.FormattedAddress
	}
	return nil
}

// AddUserEvent appends a personal event, assigning its id and createdAt.
func (s *Service) AddUserEvent(ctx context.Context, id string, e domain.UserEvent) (domain.UserEvent, error) {
	if err := domain.ValidateUserEvent(e); err != nil {
		return domain.UserEvent{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.clock.Now().UTC()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.AppendEvent(ctx, id, e); err != nil {
		return domain.UserEvent{}, fmt.Errorf("add event for %s: %w", id, err)
	}
	return e, nil
}

// SaveAstronomicalEvent copies a catalogue event into the personal list.
func (s *Service) SaveAstronomicalEvent(ctx context.Context, id, eventID string) (domain.UserEvent, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.UserEvent{}, err
	}
	return s.AddUserEvent(ctx, id, domain.UserEvent{
		Name:        ev.Name,
		Description: ev.Description,
		Latitude:    ev.Location.Lat(),
		Longitude:   ev.Location.Lon(),
		Time:        ev.StartDate,
	})
}

// RemoveUserEvent deletes a personal event. Removing an id that is already
// gone reports domain.ErrNotFound.
func (s *Service) RemoveUserEvent(ctx context.Context, id, eventID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.RemoveEvent(ctx, id, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("event %s for user %s: %w", eventID, id, err)
		}
		return fmt.Errorf("remove event for %s: %w", id, err)
	}
	return nil
}

// ListUserEvents returns the personal event list.
func (s *Service) ListUserEvents(ctx context.Context, id string) ([]domain.UserEvent, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Events == nil {
		return []domain.UserEvent{}, nil
	}
	return u.Events, nil
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
