package domain

import (
	"time"
)

// LeadTime is how long before an event a user wants to be notified.
type LeadTime string

const (
	LeadTime1h  LeadTime = "1h"
	LeadTime6h  LeadTime = "6h"
	LeadTime12h LeadTime = "12h"
	LeadTime24h LeadTime = "24h"
	LeadTime48h LeadTime = "48h"
)

var leadTimeWindows = map[LeadTime]time.Duration{
	LeadTime1h:  time.Hour,
	LeadTime6h:  6 * time.Hour,
	LeadTime12h: 12 * time.Hour,
	LeadTime24h: 24 * time.Hour,
	LeadTime48h: 48 * time.Hour,
}

// Window returns the lead time as a duration.
func (l LeadTime) Window() (time.Duration, bool) {
	d, ok := leadTimeWindows[l]
	return d, ok
}

// Themes accepted for UserSettings.Theme.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// UserSettings are a user's profile and notification preferences.
type UserSettings struct {
	Name            string    `json:"name" validate:"max=255"`
	Latitude        float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Address         string    `json:"address,omitempty" validate:"max=512"`
	Theme           string    `json:"theme" validate:"omitempty,oneof=system light dark"`
	NotifyAll       bool      `json:"notifyAll"`
	NotifyEmail     bool      `json:"notifyEmail"`
	NotifyPhone     bool      `json:"notifyPhone"`
	NotifyFrequency LeadTime  `json:"notifyFrequency" validate:"omitempty,oneof=1h 6h 12h 24h 48h"`
	Email           string    `json:"email,omitempty" validate:"required_if=NotifyEmail true,omitempty,email"`
	Phone           string    `json:"phone,omitempty" validate:"required_if=NotifyPhone true,omitempty,len=10,numeric"`
	PhoneProvider   string    `json:"phoneProvider,omitempty" validate:"required_if=NotifyPhone true"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// DefaultSettings is returned for a registered user who never saved settings.
func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:           ThemeSystem,
		NotifyFrequency: LeadTime24h,
	}
}

// UserEvent is an entry in a user's personal calendar.
type UserEvent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty" validate:"max=255"`
	Description string    `json:"description,omitempty" validate:"max=2048"`
	Latitude    float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Time        time.Time `json:"time" validate:"required"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User is the stored record for one identity-provider subject.
// Settings is nil until the user saves settings for the first time.
type User struct {
	ID        string        `json:"userId"`
	Name      string        `json:"name,omitempty"`
	Email     string        `json:"email,omitempty"`
	Settings  *UserSettings `json:"settings,omitempty"`
	Events    []UserEvent   `json:"events"`
	CreatedAt time.Time     `json:"createdAt"`
}
