package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ZoneStatus is the geofence judgment for a single position fix.
// DistanceM is the distance to the nearest zone edge in meters: how close
// the vessel is to leaving when inside, how far back to the zone when
// outside.
type ZoneStatus struct {
	Inside     bool     `json:"inside"`
	DistanceM  float64  `json:"distance_m"`
	HeadingDeg *float64 `json:"heading_deg,omitempty"` // nil until the estimator stabilises
}
