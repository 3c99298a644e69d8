package domain

// Descriptive pools the generator draws from.

var eventNames = map[EventType][]string{
	MeteorShower: {
		"Perseids Meteor Shower",
		"Leonids Meteor Shower",
		"Geminids Meteor Shower",
		"Orionids Meteor Shower",
		"Lyrids Meteor Shower",
		"Eta Aquariids Meteor Shower",
		"Draconids Meteor Shower",
	},
	SolarEclipse: {
		"Total Solar Eclipse",
		"Partial Solar Eclipse",
		"Annular Solar Eclipse",
		"Hybrid Solar Eclipse",
		"Ring of Fire Eclipse",
		"Shadow Crossing Eclipse",
	},
	LunarEclipse: {
		"Total Lunar Eclipse",
		"Partial Lunar Eclipse",
		"Penumbral Lunar Eclipse",
		"Blood Moon Eclipse",
		"Harvest Moon Eclipse",
		"Hunter's Moon Eclipse",
	},
	PlanetaryAlignment: {
		"Great Conjunction",
		"Triangular Conjunction",
		"Venus-Mars Alignment",
		"Jupiter-Saturn Alignment",
		"Inner Planet Alignment",
		"Celestial Parade",
	},
	Supermoon: {
		"Pink Supermoon",
		"Strawberry Supermoon",
		"Blue Supermoon",
		"Hunter's Supermoon",
		"Snow Supermoon",
		"Harvest Supermoon",
	},
	CometSighting: {
		"Comet Halley",
		"Comet NEOWISE",
		"Comet Lovejoy",
		"Comet Hale-Bopp",
		"Comet Encke",
		"Comet Machholz",
	},
	AsteroidFlyby: {
		"Asteroid Apophis Flyby",
		"Asteroid Bennu Encounter",
		"Asteroid Ryugu Observation",
		"Asteroid 2011 AG5 Close Pass",
		"Asteroid Florence Flyby",
		"Asteroid Itokawa Sighting",
	},
}

// descriptionTemplates take the event name as their only verb.
var descriptionTemplates = map[EventType]string{
	MeteorShower:       "The %s is an annual meteor shower with high visibility.",
	SolarEclipse:       "The %s is a rare solar eclipse, visible in specific regions.",
	LunarEclipse:       "The %s is a total lunar eclipse with clear visibility across many locations.",
	PlanetaryAlignment: "The %s is a spectacular planetary alignment visible to the naked eye.",
	Supermoon:          "The %s will make the Moon appear larger and brighter than usual.",
	CometSighting:      "The %s marks a rare sighting of a bright comet.",
	AsteroidFlyby:      "The %s marks an asteroid flying by Earth at a safe distance.",
}

var visibilities = []string{
	"Best visible after midnight",
	"Visible throughout the night",
	"Best viewed at dawn",
	"Visible with a telescope",
	"Visible to the naked eye",
}

var intensities = []Intensity{IntensityLow, IntensityMedium, IntensityHigh, IntensityExtreme}

var frequencies = []string{"Annual", "Biennial", "Once-in-a-lifetime", "Occasional", "Rare"}

// NamesFor returns the name pool for an event type.
func NamesFor(t EventType) []string {
	return eventNames[t]
}
