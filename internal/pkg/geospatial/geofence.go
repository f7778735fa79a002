package geospatial

import "math"

const (
	earthRadiusKm = 6371.0

	// Meters per degree of latitude; longitude is scaled by cos(lat).
	// The flat-earth approximation is fine at operating-area scale but
	// degenerates near the poles, where cos(lat) approaches zero. Callers
	// must not build rectangles there.
	metersPerDegLat = 111320.0
)

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func metersPerDegLon(lat float64) float64 {
	return metersPerDegLat * math.Cos(toRad(lat))
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Rect is an axis-aligned lat/lon bounding box. SWLat < NELat and
// SWLon < NELon hold for any rectangle built from a positive half size.
type Rect struct {
	SWLat float64 `json:"sw_lat"`
	SWLon float64 `json:"sw_lon"`
	NELat float64 `json:"ne_lat"`
	NELon float64 `json:"ne_lon"`
}

// RectFromCenter builds the allowed-area rectangle from a center point plus
// half-width (east-west) and half-height (north-south) in meters.
func RectFromCenter(lat, lon, halfWidthM, halfHeightM float64) Rect {
	dLat := halfHeightM / metersPerDegLat
	dLon := halfWidthM / metersPerDegLon(lat)
	return Rect{
		SWLat: lat - dLat,
		SWLon: lon - dLon,
		NELat: lat + dLat,
		NELon: lon + dLon,
	}
}

// Contains reports whether the point lies inside the rectangle.
// All four boundaries are inclusive.
func (r Rect) Contains(lat, lon float64) bool {
	return lat >= r.SWLat && lat <= r.NELat && lon >= r.SWLon && lon <= r.NELon
}

// DistanceToEdge returns the distance in meters to the nearest rectangle
// edge. Outside the rectangle it is the shortest way back in; inside it is
// how close the point already is to exiting. Inside, the per-axis minimum is
// an approximation of the true nearest-corner distance for points off the
// center axes; callers use it as a proximity warning only.
func (r Rect) DistanceToEdge(lat, lon float64) float64 {
	midLat := (r.SWLat + r.NELat) / 2
	mLon := metersPerDegLon(midLat)

	// Local meters frame with the origin at the rectangle center.
	cLat := (r.SWLat + r.NELat) / 2
	cLon := (r.SWLon + r.NELon) / 2
	x := (lon - cLon) * mLon
	y := (lat - cLat) * metersPerDegLat

	halfW := (r.NELon - cLon) * mLon
	halfH := (r.NELat - cLat) * metersPerDegLat

	dx := math.Max(math.Abs(x)-halfW, 0)
	dy := math.Max(math.Abs(y)-halfH, 0)
	if dx == 0 && dy == 0 {
		toVertical := halfW - math.Abs(x)
		toHorizontal := halfH - math.Abs(y)
		return math.Min(toVertical, toHorizontal)
	}
	return math.Hypot(dx, dy)
}

// Center returns the rectangle's center point.
func (r Rect) Center() (lat, lon float64) {
	return (r.SWLat + r.NELat) / 2, (r.SWLon + r.NELon) / 2
}

// Bearing returns the direction of travel from point 1 to point 2 in degrees
// clockwise from north, normalized to [0, 360). The delta is projected into
// local east/north meters at the mid-latitude so it stays consistent with
// DistanceToEdge.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	midLat := (lat1 + lat2) / 2
	dx := (lon2 - lon1) * metersPerDegLon(midLat) // meters east
	dy := (lat2 - lat1) * metersPerDegLat         // meters north

	deg := math.Atan2(dx, dy) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// LocalDistance returns the displacement in meters between two nearby points
// using the same local projection as Bearing.
func LocalDistance(lat1, lon1, lat2, lon2 float64) float64 {
	midLat := (lat1 + lat2) / 2
	dx := (lon2 - lon1) * metersPerDegLon(midLat)
	dy := (lat2 - lat1) * metersPerDegLat
	return math.Hypot(dx, dy)
}
