package domain

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	minBatchSize  = 3
	maxBatchSize  = 10
	minStartDays  = 1
	maxStartDays  = 7
	minSpanDays   = 1
	maxSpanDays   = 5
	daysPerWeek   = 7
	millisPerSec  = 1000
	hoursPerDay   = 24
	minutesPerHr  = 60
	secondsPerMin = 60
)

// Generator produces synthetic astronomical events. Output is a pure function
// of the seed and the clock, so a seeded generator on a fake clock is
// reproducible. Safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	src   *rand.ChaCha8
	rng   *rand.Rand
	clock clockwork.Clock
}

// NewGenerator returns a generator seeded from crypto/rand.
func NewGenerator(clock clockwork.Clock) *Generator {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("seed event generator: %v", err))
	}
	return newGenerator(seed, clock)
}

// NewSeededGenerator returns a deterministic generator for fixtures and tests.
func NewSeededGenerator(seed uint64, clock clockwork.Clock) *Generator {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return newGenerator(s, clock)
}

func newGenerator(seed [32]byte, clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	src := rand.NewChaCha8(seed)
	return &Generator{src: src, rng: rand.New(src), clock: clock}
}

// GenerateEvent produces one event with a fresh id.
func (g *Generator) GenerateEvent() AstronomicalEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateLocked(g.clock.Now())
}

// GenerateDailyBatch produces between 3 and 10 events inclusive.
func (g *Generator) GenerateDailyBatch() []AstronomicalEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.batchLocked(g.clock.Now())
}

// GenerateWeek produces seven daily batches flattened into one slice.
func (g *Generator) GenerateWeek() []AstronomicalEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	week := make([]AstronomicalEvent, 0, daysPerWeek*maxBatchSize)
	for range daysPerWeek {
		week = append(week, g.batchLocked(now)...)
	}
	return week
}

func (g *Generator) batchLocked(now time.Time) []AstronomicalEvent {
	n := minBatchSize + g.rng.IntN(maxBatchSize-minBatchSize+1)
	batch := make([]AstronomicalEvent, n)
	for i := range batch {
		batch[i] = g.generateLocked(now)
	}
	return batch
}

func (g *Generator) generateLocked(now time.Time) AstronomicalEvent {
	eventType := pick(g.rng, EventTypes)
	r := coordinateRanges[eventType]

	lon := r.MinLon + g.rng.Float64()*(r.MaxLon-r.MinLon)
	lat := r.MinLat + g.rng.Float64()*(r.MaxLat-r.MinLat)

	name := pick(g.rng, eventNames[eventType])
	start := g.randomDay(now, minStartDays, maxStartDays)
	end := g.randomDay(start, minSpanDays, maxSpanDays)

	return AstronomicalEvent{
		ID:          uuid.Must(uuid.NewRandomFromReader(g.src)).String(),
		Type:        eventType,
		Name:        name,
		StartDate:   start,
		EndDate:     end,
		Location:    NewLocation(lat, lon),
		Description: fmt.Sprintf(descriptionTemplates[eventType], name),
		Visibility:  pick(g.rng, visibilities),
		Intensity:   pick(g.rng, intensities),
		Frequency:   pick(g.rng, frequencies),
	}
}

// randomDay moves base forward a whole number of UTC calendar days in
// [minDays, maxDays] and replaces the time of day with a uniform one.
func (g *Generator) randomDay(base time.Time, minDays, maxDays int) time.Time {
	day := base.UTC().AddDate(0, 0, minDays+g.rng.IntN(maxDays-minDays+1))
	return time.Date(day.Year(), day.Month(), day.Day(),
		g.rng.IntN(hoursPerDay),
		g.rng.IntN(minutesPerHr),
		g.rng.IntN(secondsPerMin),
		g.rng.IntN(millisPerSec)*int(time.Millisecond),
		time.UTC)
}

func pick[T any](rng *rand.Rand, pool []T) T {
	return pool[rng.IntN(len(pool))]
}
