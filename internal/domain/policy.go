package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// NotificationSubject is the subject line of every digest.
const NotificationSubject = "Upcoming astronomical events"

// Candidate is a user together with the events they should hear about.
type Candidate struct {
	UserID   string        `json:"userId"`
	Name     string        `json:"name"`
	Settings *UserSettings `json:"-"`
	Events   []UserEvent   `json:"events"`
}

// Policy decides notification eligibility against a clock.
type Policy struct {
	clock clockwork.Clock
}

// NewPolicy returns a Policy. A nil clock means real time.
func NewPolicy(clock clockwork.Clock) *Policy {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Policy{clock: clock}
}

// IsTimeToNotify reports whether the hour-truncated gap between now and
// eventTime is at most the lead-time window. The test is one-sided: events
// already in the past also pass. Unknown lead times never pass.
func (p *Policy) IsTimeToNotify(eventTime time.Time, lead LeadTime) bool {
	window, ok := lead.Window()
	if !ok {
		return false
	}
	now := p.clock.Now().Truncate(time.Hour)
	return eventTime.Truncate(time.Hour).Sub(now) <= window
}

// SelectNotifiableUsers keeps, for each user with personal events, the
// future events that fall inside the user's lead time. Users left with
// nothing are dropped. Users without settings are judged on the default
// lead time so the dispatcher can report their incomplete settings.
func (p *Policy) SelectNotifiableUsers(users []User) []Candidate {
	now := p.clock.Now()
	var out []Candidate
	for _, u := range users {
		if len(u.Events) == 0 {
			continue
		}
		lead := DefaultSettings().NotifyFrequency
		if u.Settings != nil && u.Settings.NotifyFrequency != "" {
			lead = u.Settings.NotifyFrequency
		}

		var due []UserEvent
		for _, e := range u.Events {
			if e.Time.Before(now) {
				continue
			}
			if p.IsTimeToNotify(e.Time, lead) {
				due = append(due, e)
			}
		}
		if len(due) == 0 {
			continue
		}
		out = append(out, Candidate{
			UserID:   u.ID,
			Name:     DisplayName(u),
			Settings: u.Settings,
			Events:   due,
		})
	}
	return out
}

// DisplayName prefers the name from settings over the registered name.
func DisplayName(u User) string {
	if u.Settings != nil && u.Settings.Name != "" {
		return u.Settings.Name
	}
	return u.Name
}

// ComposeMessage renders the digest body. Events appear in input order.
func ComposeMessage(name string, events []UserEvent) string {
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	if len(events) == 1 {
		b.WriteString("You have 1 upcoming event:\n")
	} else {
		fmt.Fprintf(&b, "You have %d upcoming events:\n", len(events))
	}

	for _, e := range events {
		title := e.Name
		if title == "" {
			title = "Untitled event"
		}
		fmt.Fprintf(&b, "\n- %s\n", title)
		if e.Description != "" {
			fmt.Fprintf(&b, "  %s\n", e.Description)
		}
		fmt.Fprintf(&b, "  When: %s\n", e.Time.UTC().Format(time.RFC1123))
		fmt.Fprintf(&b, "  Where: %.4f, %.4f\n", e.Latitude, e.Longitude)
	}

	b.WriteString("\nClear skies!\n")
	return b.String()
}
