// Command genevents writes a reproducible week of generated astronomical
// events to a JSON fixture, for seeding test databases and client mocks.
//
// Usage:
//
//	go run ./cmd/genevents -seed 42 -out data/mock/events_week.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixtureTime is the generation instant recorded in every fixture.
var fixtureTime = time.Date(2026, time.January, 1, 6, 0, 0, 0, time.UTC)

// fixture is the file layout shared with cmd/validate.
type fixture struct {
	Seed        uint64                     `json:"seed"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Events      []domain.AstronomicalEvent `json:"events"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	seed := flag.Uint64("seed", 1, "generator seed")
	out := flag.String("out", "", "output path for the JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	gen := domain.NewSeededGenerator(*seed, clockwork.NewFakeClockAt(fixtureTime))
	week := gen.GenerateWeek()

	for i := range week {
		if err := domain.ValidateEvent(week[i], fixtureTime); err != nil {
			return fmt.Errorf("generated event %s failed validation: %w", week[i].ID, err)
		}
	}

	if err := writeJSON(*out, fixture{Seed: *seed, GeneratedAt: fixtureTime, Events: week}); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d events to %s", len(week), *out)

	printStats(week)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type typeCount struct {
	eventType domain.EventType
	count     int
}

func printStats(events []domain.AstronomicalEvent) {
	counts := map[domain.EventType]int{}
	byDay := map[string]int{}
	intensities := map[domain.Intensity]int{}
	names := map[string]bool{}
	for i := range events {
		counts[events[i].Type]++
		names[events[i].Name] = true
		byDay[events[i].StartDate.Format(time.DateOnly)]++
		intensities[events[i].Intensity]++
	}

	tc := make([]typeCount, 0, len(counts))
	for t, c := range counts {
		tc = append(tc, typeCount{t, c})
	}
	sort.Slice(tc, func(i, j int) bool {
		if tc[i].count != tc[j].count {
			return tc[i].count > tc[j].count
		}
		return tc[i].eventType < tc[j].eventType
	})

	fmt.Println("\n=== Fixture stats ===")
	fmt.Printf("Total: %d\n", len(events))
	fmt.Print("By type:")
	pool := 0
	for _, c := range tc {
		fmt.Printf(" %q=%d", c.eventType, c.count)
		pool += len(domain.NamesFor(c.eventType))
	}
	fmt.Println()
	fmt.Printf("Distinct names: %d of %d in the drawn types' pools\n", len(names), pool)

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	fmt.Print("Starting per day:")
	for _, d := range days {
		fmt.Printf(" %s=%d", d, byDay[d])
	}
	fmt.Println()

	fmt.Printf("By intensity: low=%d, medium=%d, high=%d, extreme=%d\n",
		intensities[domain.IntensityLow], intensities[domain.IntensityMedium],
		intensities[domain.IntensityHigh], intensities[domain.IntensityExtreme])
}
