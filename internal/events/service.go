// Package events owns the astronomical event catalogue: lazy seeding,
// lookups, radius queries, the expiry sweep, and admin repopulation.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/couchcryptid/stargazer-events/internal/observability"
	"github.com/jonboulle/clockwork"
)

const seedLockKey = "stargazer:seed-lock"

// SeedLock serializes seeding across callers. Acquire does not block: ok is
// false when somebody else holds key.
type SeedLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Publisher receives every freshly generated batch.
type Publisher interface {
	PublishBatch(ctx context.Context, events []domain.AstronomicalEvent) error
}

// Service implements the event store operations on top of a repository.
type Service struct {
	repo      domain.EventRepository
	gen       *domain.Generator
	lock      SeedLock
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	timeout  time.Duration
	lockTTL  time.Duration
	seedWait time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithSeedLock replaces the in-process seed lock, e.g. with a Redis lock
// shared by several replicas.
func WithSeedLock(l SeedLock) Option { return func(s *Service) { s.lock = l } }

// WithPublisher forwards generated batches to p.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithTimeout bounds every repository call.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// WithLockTTL sets how long a seed lock may be held before it lapses.
func WithLockTTL(d time.Duration) Option { return func(s *Service) { s.lockTTL = d } }

// WithClock sets the clock used by the expiry sweep.
func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

// NewService creates an event service. Without options it uses an
// in-process seed lock, no publisher, and a 5s repository timeout.
func NewService(repo domain.EventRepository, gen *domain.Generator, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		gen:      gen,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
		timeout:  5 * time.Second,
		lockTTL:  30 * time.Second,
		seedWait: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lock == nil {
		s.lock = NewLocalLock(s.clock)
	}
	return s
}

// Add stores one event as given.
func (s *Service) Add(ctx context.Context, e domain.AstronomicalEvent) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.Insert(ctx, e); err != nil {
		return s.storeErr("insert", err)
	}
	return nil
}

// GetAll returns every stored event. An empty store is seeded with a week
// of generated events first, at most once across concurrent callers.
func (s *Service) GetAll(ctx context.Context) ([]domain.AstronomicalEvent, error) {
	list, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		s.metrics.EventsServed.WithLabelValues("all").Add(float64(len(list)))
		return list, nil
	}

	if err := s.seedIfEmpty(ctx); err != nil {
		return nil, err
	}

	list, err = s.list(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.EventsServed.WithLabelValues("all").Add(float64(len(list)))
	return list, nil
}

// ListCurrent sweeps expired events and then returns the rest.
func (s *Service) ListCurrent(ctx context.Context) ([]domain.AstronomicalEvent, error) {
	if _, err := s.RemoveExpired(ctx); err != nil {
		return nil, err
	}
	return s.GetAll(ctx)
}

// GetByID returns one event or domain.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (domain.AstronomicalEvent, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	e, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AstronomicalEvent{}, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
		}
		return domain.AstronomicalEvent{}, s.storeErr("get", err)
	}
	s.metrics.EventsServed.WithLabelValues("id").Inc()
	return e, nil
}

// Near returns events within radiusKm great-circle kilometers of the point,
// boundary included.
func (s *Service) Near(ctx context.Context, lat, lon, radiusKm float64) ([]domain.AstronomicalEvent, error) {
	if err := domain.ValidateNearQuery(domain.NearQuery{Lat: lat, Lon: lon, RadiusKm: radiusKm}); err != nil {
		return nil, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	list, err := s.repo.Near(ctx, lat, lon, radiusKm)
	if err != nil {
		return nil, s.storeErr("near", err)
	}
	s.metrics.EventsServed.WithLabelValues("near").Add(float64(len(list)))
	return list, nil
}

// RemoveExpired deletes events that ended strictly before now. Repeated or
// concurrent calls are harmless.
func (s *Service) RemoveExpired(ctx context.Context) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.repo.DeleteEndedBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, s.storeErr("remove_expired", err)
	}
	if n > 0 {
		s.metrics.EventsExpired.Add(float64(n))
		s.logger.Info("expired events removed", "count", n)
	}
	return n, nil
}

// Clear deletes every event.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, s.storeErr("clear", err)
	}
	s.logger.Info("event store cleared", "count", n)
	return n, nil
}

// Populate clears the store and writes a fresh week of events.
func (s *Service) Populate(ctx context.Context) ([]domain.AstronomicalEvent, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.Clear(ctx); err != nil {
		return nil, err
	}
	return s.seed(ctx, "populate")
}

func (s *Service) seedIfEmpty(ctx context.Context) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	count, err := s.count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = s.seed(ctx, "lazy")
	return err
}

func (s *Service) seed(ctx context.Context, trigger string) ([]domain.AstronomicalEvent, error) {
	week := s.gen.GenerateWeek()

	insertCtx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.repo.Insert(insertCtx, week...); err != nil {
		return nil, s.storeErr("insert", err)
	}

	s.metrics.SeedRuns.WithLabelValues(trigger).Inc()
	s.metrics.EventsGenerated.Add(float64(len(week)))
	s.logger.Info("event store seeded", "trigger", trigger, "count", len(week))

	if s.publisher != nil {
		if err := s.publisher.PublishBatch(ctx, week); err != nil {
			s.metrics.PublishErrors.Inc()
			s.logger.Warn("publish generated events failed", "error", err, "count", len(week))
		}
	}
	return week, nil
}

// acquire waits for the seed lock, backing off between attempts, until it
// is taken or seedWait elapses.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.seedWait)
	defer cancel()

	backoff := 20 * time.Millisecond
	maxBackoff := time.Second
	for {
		release, ok, err := s.lock.Acquire(ctx, seedLockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire seed lock: %w", err)
		}
		if ok {
			return release, nil
		}
		if !sleepWithContext(ctx, backoff) {
			return nil, fmt.Errorf("acquire seed lock: %w: %w", domain.ErrTransient, ctx.Err())
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (s *Service) list(ctx context.Context) ([]domain.AstronomicalEvent, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storeErr("list", err)
	}
	return list, nil
}

func (s *Service) count(ctx context.Context) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, s.storeErr("count", err)
	}
	return n, nil
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// storeErr counts and logs a repository failure. Deadline overruns are
// reported as transient.
func (s *Service) storeErr(op string, err error) error {
	s.metrics.StoreErrors.WithLabelValues(op).Inc()
	s.logger.Error("event store operation failed", "op", op, "error", err)
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransient) {
		return fmt.Errorf("%s events: %w: %w", op, domain.ErrTransient, err)
	}
	return fmt.Errorf("%s events: %w", op, err)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
