package geo

import (
	"math"
	"strings"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// regionCentroids maps the leading digit of an Austrian postal code to an
// approximate centroid of that postal region. This is a deliberate coarse
// approximation, not geocoding: one point per region bucket.
var regionCentroids = map[byte]Point{
	'1': {Lat: 48.2082, Lon: 16.3738}, // Vienna
	'2': {Lat: 48.3333, Lon: 16.7333}, // Lower Austria east
	'3': {Lat: 48.2047, Lon: 15.6256}, // Lower Austria west (St. Pölten)
	'4': {Lat: 48.3069, Lon: 14.2858}, // Upper Austria (Linz)
	'5': {Lat: 47.8095, Lon: 13.0550}, // Salzburg
	'6': {Lat: 47.2692, Lon: 11.4041}, // Tyrol / Vorarlberg (Innsbruck)
	'7': {Lat: 47.8457, Lon: 16.5287}, // Burgenland (Eisenstadt)
	'8': {Lat: 47.0707, Lon: 15.4395}, // Styria (Graz)
	'9': {Lat: 46.6249, Lon: 14.3050}, // Carinthia (Klagenfurt)
}

// defaultCentroid is returned for empty or unmapped postal codes; roughly the
// geographic center of Austria.
var defaultCentroid = Point{Lat: 47.6965, Lon: 13.3458}

// ApproximateFromPostal maps a postal code to its regional centroid. It never
// fails: unknown codes fall back to the default centroid.
func ApproximateFromPostal(postalCode string) Point {
	code := strings.TrimSpace(postalCode)
	if code == "" {
		return defaultCentroid
	}
	if p, ok := regionCentroids[code[0]]; ok {
		return p
	}
	return defaultCentroid
}

// DistanceKm returns the great-circle distance between two points in
// kilometers (haversine). Symmetric, and zero for identical inputs.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
