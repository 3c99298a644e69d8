package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound reports a missing user, event, or personal event.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports input rejected at a write boundary.
	ErrValidation = errors.New("validation failed")
	// ErrTransient reports a store or transport failure worth retrying later.
	ErrTransient = errors.New("transient failure")
	// ErrSettingsIncomplete is returned when a user has no stored settings.
	ErrSettingsIncomplete = errors.New("user settings are incomplete")
	// ErrUnknownCarrier marks a phone provider with no SMS gateway.
	ErrUnknownCarrier = errors.New("unknown phone carrier")
)

// NoUpcomingEventsMessage is the dispatch sentinel for an empty event list.
const NoUpcomingEventsMessage = "No upcoming events found"

// ValidationError carries per-field reasons and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
