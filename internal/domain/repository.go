package domain

import (
	"context"
	"time"
)

// EventRepository persists astronomical events. Implementations return
// ErrNotFound for a missing id and wrap connectivity failures in ErrTransient.
type EventRepository interface {
	Insert(ctx context.Context, events ...AstronomicalEvent) error
	List(ctx context.Context) ([]AstronomicalEvent, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id string) (AstronomicalEvent, error)
	// Near returns events within radiusKm great-circle kilometers of the
	// point, boundary included.
	Near(ctx context.Context, lat, lon, radiusKm float64) ([]AstronomicalEvent, error)
	// DeleteEndedBefore removes events whose end date is strictly before t.
	DeleteEndedBefore(ctx context.Context, t time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// UserRepository persists users with their settings and personal events.
type UserRepository interface {
	// Register creates the user if absent and returns the stored record.
	Register(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	// SetSettings replaces a user's settings; ErrNotFound if no user exists.
	SetSettings(ctx context.Context, id string, s UserSettings) error
	AppendEvent(ctx context.Context, id string, e UserEvent) error
	// RemoveEvent returns ErrNotFound when the user or the event is missing.
	RemoveEvent(ctx context.Context, id, eventID string) error
}

// Mail is one outgoing plain-text message.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers mail. Send returns once the transport accepted or
// rejected the message; connectivity failures wrap ErrTransient.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}
