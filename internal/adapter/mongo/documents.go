package mongo

import (
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/paulmach/orb"
)

type pointDoc struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"` // [lon, lat]
}

type eventDoc struct {
	ID          string    `bson:"_id"`
	Type        string    `bson:"type"`
	Name        string    `bson:"name"`
	StartDate   time.Time `bson:"startDate"`
	EndDate     time.Time `bson:"endDate"`
	Location    pointDoc  `bson:"location"`
	Description string    `bson:"description"`
	Visibility  string    `bson:"visibility"`
	Intensity   string    `bson:"intensity"`
	Frequency   string    `bson:"frequency"`
}

func toEventDoc(e domain.AstronomicalEvent) eventDoc {
	return eventDoc{
		ID:        e.ID,
		Type:      string(e.Type),
		Name:      e.Name,
		StartDate: e.StartDate.UTC(),
		EndDate:   e.EndDate.UTC(),
		Location: pointDoc{
			Type:        domain.GeoJSONPoint,
			Coordinates: []float64{e.Location.Lon(), e.Location.Lat()},
		},
		Description: e.Description,
		Visibility:  e.Visibility,
		Intensity:   string(e.Intensity),
		Frequency:   e.Frequency,
	}
}

func (d eventDoc) domain() domain.AstronomicalEvent {
	loc := domain.Location{Type: d.Location.Type}
	if len(d.Location.Coordinates) == 2 {
		loc.Coordinates = orb.Point{d.Location.Coordinates[0], d.Location.Coordinates[1]}
	}
	return domain.AstronomicalEvent{
		ID:          d.ID,
		Type:        domain.EventType(d.Type),
		Name:        d.Name,
		StartDate:   d.StartDate.UTC(),
		EndDate:     d.EndDate.UTC(),
		Location:    loc,
		Description: d.Description,
		Visibility:  d.Visibility,
		Intensity:   domain.Intensity(d.Intensity),
		Frequency:   d.Frequency,
	}
}

type settingsDoc struct {
	Name            string    `bson:"name"`
	Latitude        float64   `bson:"latitude"`
	Longitude       float64   `bson:"longitude"`
	Address         string    `bson:"address,omitempty"`
	Theme           string    `bson:"theme"`
	NotifyAll       bool      `bson:"notifyAll"`
	NotifyEmail     bool      `bson:"notifyEmail"`
	NotifyPhone     bool      `bson:"notifyPhone"`
	NotifyFrequency string    `bson:"notifyFrequency"`
	Email           string    `bson:"email,omitempty"`
	Phone           string    `bson:"phone,omitempty"`
	PhoneProvider   string    `bson:"phoneProvider,omitempty"`
	LastUpdated     time.Time `bson:"lastUpdated"`
}

type userEventDoc struct {
	ID          string    `bson:"id"`
	Name        string    `bson:"name,omitempty"`
	Description string    `bson:"description,omitempty"`
	Latitude    float64   `bson:"latitude"`
	Longitude   float64   `bson:"longitude"`
	Time        time.Time `bson:"time"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type userDoc struct {
	ID        string         `bson:"_id"`
	Name      string         `bson:"name,omitempty"`
	Email     string         `bson:"email,omitempty"`
	Settings  *settingsDoc   `bson:"settings,omitempty"`
	Events    []userEventDoc `bson:"events"`
	CreatedAt time.Time      `bson:"createdAt"`
}

func toSettingsDoc(s domain.UserSettings) settingsDoc {
	return settingsDoc{
		Name:            s.Name,
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		Address:         s.Address,
		Theme:           s.Theme,
		NotifyAll:       s.NotifyAll,
		NotifyEmail:     s.NotifyEmail,
		NotifyPhone:     s.NotifyPhone,
		NotifyFrequency: string(s.NotifyFrequency),
		Email:           s.Email,
		Phone:           s.Phone,
		PhoneProvider:   s.PhoneProvider,
		LastUpdated:     s.LastUpdated.UTC(),
	}
}

func (d settingsDoc) domain() domain.UserSettings {
	return domain.UserSettings{
		Name:            d.Name,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		Address:         d.Address,
		Theme:           d.Theme,
		NotifyAll:       d.NotifyAll,
		NotifyEmail:     d.NotifyEmail,
		NotifyPhone:     d.NotifyPhone,
		NotifyFrequency: domain.LeadTime(d.NotifyFrequency),
		Email:           d.Email,
		Phone:           d.Phone,
		PhoneProvider:   d.PhoneProvider,
		LastUpdated:     d.LastUpdated.UTC(),
	}
}

func toUserEventDoc(e domain.UserEvent) userEventDoc {
	return userEventDoc{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		Time:        e.Time.UTC(),
		CreatedAt:   e.CreatedAt.UTC(),
	}
}

func (d userEventDoc) domain() domain.UserEvent {
	return domain.UserEvent{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		Time:        d.Time.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func toUserDoc(u domain.User) userDoc {
	d := userDoc{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Events:    make([]userEventDoc, 0, len(u.Events)),
		CreatedAt: u.CreatedAt.UTC(),
	}
	if u.Settings != nil {
		s := toSettingsDoc(*u.Settings)
		d.Settings = &s
	}
	for _, e := range u.Events {
		d.Events = append(d.Events, toUserEventDoc(e))
	}
	return d
}

func (d userDoc) domain() domain.User {
	u := domain.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Events:    make([]domain.UserEvent, 0, len(d.Events)),
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.Settings != nil {
		s := d.Settings.domain()
		u.Settings = &s
	}
	for _, e := range d.Events {
		u.Events = append(u.Events, e.domain())
	}
	return u
}
