// Command validate checks a generated event fixture: every event passes the
// generation invariants, ids are unique, the batch sizes are plausible, and
// the fixture regenerates from its recorded seed.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/events_week.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

const (
	days         = 7
	minPerDay    = 3
	maxPerDay    = 10
	maxReported  = 20
	maxDiffBytes = 2000
)

type fixture struct {
	Seed        uint64                     `json:"seed"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Events      []domain.AstronomicalEvent `json:"events"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("fixture", "", "path to a genevents JSON fixture")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*path))
}

func run(path string) int {
	fmt.Println("=== Event Fixture Validation ===")

	fx, err := load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateInvariants(fx),
		validateUniqueness(fx),
		validateVolume(fx),
		validateReproducible(fx),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}
	fmt.Printf("\nEvents: %d (seed %d, generated %s)\n", len(fx.Events), fx.Seed, fx.GeneratedAt.Format(time.RFC3339))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func load(path string) (fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fixture{}, err
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return fixture{}, fmt.Errorf("decode: %w", err)
	}
	return fx, nil
}

func validateInvariants(fx fixture) *phase {
	p := &phase{name: "Generation invariants"}
	for i := range fx.Events {
		if err := domain.ValidateEvent(fx.Events[i], fx.GeneratedAt); err != nil {
			p.errorf("%s (%s): %v", fx.Events[i].ID, fx.Events[i].Type, err)
		}
		if len(p.errors) >= maxReported {
			p.errorf("further errors suppressed")
			break
		}
	}
	return p
}

func validateUniqueness(fx fixture) *phase {
	p := &phase{name: "Unique ids"}
	seen := make(map[string]int, len(fx.Events))
	for i, e := range fx.Events {
		if j, dup := seen[e.ID]; dup {
			p.errorf("id %s at positions %d and %d", e.ID, j, i)
		}
		seen[e.ID] = i
	}
	return p
}

func validateVolume(fx fixture) *phase {
	p := &phase{name: "Weekly volume"}
	if n := len(fx.Events); n < days*minPerDay || n > days*maxPerDay {
		p.errorf("%d events, want between %d and %d", n, days*minPerDay, days*maxPerDay)
	}
	return p
}

func validateReproducible(fx fixture) *phase {
	p := &phase{name: "Reproducible from seed"}
	gen := domain.NewSeededGenerator(fx.Seed, clockwork.NewFakeClockAt(fx.GeneratedAt))
	want := gen.GenerateWeek()
	if diff := cmp.Diff(want, fx.Events); diff != "" {
		if len(diff) > maxDiffBytes {
			diff = diff[:maxDiffBytes] + "\n..."
		}
		p.errorf("fixture differs from regenerated week (-want +got):\n%s", diff)
	}
	return p
}
