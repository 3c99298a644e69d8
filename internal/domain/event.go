package domain

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EventType is the fixed set of astronomical event categories.
type EventType string

const (
	MeteorShower       EventType = "Meteor Shower"
	SolarEclipse       EventType = "Solar Eclipse"
	LunarEclipse       EventType = "Lunar Eclipse"
	PlanetaryAlignment EventType = "Planetary Alignment"
	Supermoon          EventType = "Supermoon"
	CometSighting      EventType = "Comet Sighting"
	AsteroidFlyby      EventType = "Asteroid Flyby"
)

// EventTypes lists every event type in a stable order.
var EventTypes = []EventType{
	MeteorShower,
	SolarEclipse,
	LunarEclipse,
	PlanetaryAlignment,
	Supermoon,
	CometSighting,
	AsteroidFlyby,
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	_, ok := coordinateRanges[t]
	return ok
}

// Intensity grades how striking an event is expected to be.
type Intensity string

const (
	IntensityLow     Intensity = "Low"
	IntensityMedium  Intensity = "Medium"
	IntensityHigh    Intensity = "High"
	IntensityExtreme Intensity = "Extreme"
)

// GeoJSONPoint is the GeoJSON geometry type used for every location.
const GeoJSONPoint = "Point"

// Location is a GeoJSON point. Coordinates are [longitude, latitude].
type Location struct {
	Type        string    `json:"type"`
	Coordinates orb.Point `json:"coordinates"`
}

// NewLocation builds a point from latitude and longitude, in that argument
// order, storing them as [lon, lat].
func NewLocation(lat, lon float64) Location {
	return Location{Type: GeoJSONPoint, Coordinates: orb.Point{lon, lat}}
}

func (l Location) Lat() float64 { return l.Coordinates.Lat() }
func (l Location) Lon() float64 { return l.Coordinates.Lon() }

// EarthMeanRadiusKm is the sphere radius used for every radius search.
const EarthMeanRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two [lon, lat] points on
// a sphere of EarthMeanRadiusKm.
func DistanceKm(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / orb.EarthRadius * EarthMeanRadiusKm
}

// AstronomicalEvent is a generated sky event with a place and a time window.
type AstronomicalEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Name        string    `json:"name"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Location    Location  `json:"location"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	Intensity   Intensity `json:"intensity"`
	Frequency   string    `json:"frequency"`
}

// Expired reports whether the event ended strictly before now.
func (e AstronomicalEvent) Expired(now time.Time) bool {
	return e.EndDate.Before(now)
}

// CoordinateRange bounds where events of one type may be placed.
type CoordinateRange struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether the point lies inside the range, bounds included.
func (r CoordinateRange) Contains(p orb.Point) bool {
	return p.Lat() >= r.MinLat && p.Lat() <= r.MaxLat &&
		p.Lon() >= r.MinLon && p.Lon() <= r.MaxLon
}

var coordinateRanges = map[EventType]CoordinateRange{
	MeteorShower:       {MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180},
	SolarEclipse:       {MinLat: -60, MaxLat: 60, MinLon: -180, MaxLon: 180},
	LunarEclipse:       {MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180},
	PlanetaryAlignment: {MinLat: -30, MaxLat: 30, MinLon: -180, MaxLon: 180},
	Supermoon:          {MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180},
	CometSighting:      {MinLat: 30, MaxLat: 90, MinLon: -180, MaxLon: 180},
	AsteroidFlyby:      {MinLat: -90, MaxLat: -30, MinLon: -180, MaxLon: 180},
}

// RangeFor returns the coordinate envelope for an event type.
func RangeFor(t EventType) (CoordinateRange, bool) {
	r, ok := coordinateRanges[t]
	return r, ok
}
