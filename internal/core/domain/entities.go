package domain

import (
	"time"
)

// User status values.
const (
	StatusActive    = "active"
	StatusEmergency = "emergency"
	StatusInactive  = "inactive"
)

// ActiveUser represents a tracked navigator session. One row per session_id;
// coordinates hold the most recent fix.
type ActiveUser struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	// Location is nil until the first fix arrives.
	Location *GeoPoint `json:"location,omitempty"`
	Status   string    `json:"status"`
	// Zone is computed per request, never persisted.
	Zone      *ZoneStatus `json:"zone,omitempty"`
	LastSeen  time.Time   `json:"last_seen"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TrackFix is one append-only position sample in a user's track history.
type TrackFix struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Location  GeoPoint  `json:"location"`
	Inside    bool      `json:"inside"`
	DistanceM float64   `json:"distance_m"`
	Timestamp time.Time `json:"timestamp"`
}

// Place is a suggested point of interest inside the operating area.
type Place struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Type          string    `json:"type"` // Beach, Cave, Restaurant, Marina
	Difficulty    string    `json:"difficulty,omitempty"`
	SuggestedStay string    `json:"suggested_stay,omitempty"`
	Location      GeoPoint  `json:"location"`
	Distance      *float64  `json:"distance,omitempty"` // computed field
	CreatedAt     time.Time `json:"created_at"`
}

// PushSubscription is a WebPush endpoint registered by a client session.
// Keys carries the p256dh/auth pair from the browser's PushManager.
type PushSubscription struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is an admin broadcast shown to navigators.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Icon      string    `json:"icon,omitempty"`
	Badge     string    `json:"badge,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read,omitempty"` // computed per reader
}

// NotificationReceipt records a delivery to one user and its read state.
type NotificationReceipt struct {
	ID             string     `json:"id"`
	NotificationID string     `json:"notification_id"`
	UserID         string     `json:"user_id"`
	DeliveredAt    time.Time  `json:"delivered_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// PositionEvent is published on every accepted position update so admin
// clients can follow vessels live.
type PositionEvent struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Location  GeoPoint   `json:"location"`
	Zone      ZoneStatus `json:"zone"`
	Time      time.Time  `json:"time"`
}

// BreachEvent is published when a vessel crosses from inside the allowed
// area to outside.
type BreachEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Location  GeoPoint  `json:"location"`
	DistanceM float64   `json:"distance_m"`
	Time      time.Time `json:"time"`
}
