// Package domain models synthetic astronomical events, per-user notification
// settings, and the policy that decides when a user is told about an event.
//
// # Coordinates
//
// Every location is a GeoJSON point whose coordinate pair is ordered
// [longitude, latitude]. [Location] wraps an [orb.Point], so the order is the
// same at generation, in the document store, in distance calculations, and in
// API responses. Use [NewLocation] rather than building the pair by hand.
//
// Distances are great-circle distances on a sphere of radius [orb.EarthRadius]
// meters. Radius arguments cross package boundaries in kilometers.
//
// # Event generation
//
// Each event type has a fixed latitude/longitude envelope (see [RangeFor]):
//
//	Meteor Shower        lat -90..90   lon -180..180
//	Solar Eclipse        lat -60..60   lon -180..180
//	Lunar Eclipse        lat -90..90   lon -180..180
//	Planetary Alignment  lat -30..30   lon -180..180
//	Supermoon            lat -90..90   lon -180..180
//	Comet Sighting       lat  30..90   lon -180..180
//	Asteroid Flyby       lat -90..-30  lon -180..180
//
// Start dates fall on one of the next 1..7 calendar days (UTC) at a random
// time of day; end dates fall 1..5 calendar days after the start, again at a
// random time of day. A "week" of events is seven daily batches of 3..10.
//
// # Lead times
//
// Users pick how far ahead of an event they want to hear about it: 1h, 6h,
// 12h, 24h or 48h. Eligibility is computed on hour-truncated times so a timer
// firing a few minutes late does not flip the outcome.
package domain
