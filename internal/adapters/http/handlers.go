package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// InitSessionHandler registers a navigator session, creating it on first
// contact. Re-initialising restarts course estimation for the session.
func InitSessionHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		SessionID string `json:"session_id"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.SessionID == "" {
			return errBadRequest(c, "session_id is required")
		}

		user, err := deps.Presence.InitSession(c.UserContext(), req.SessionID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// UpdatePositionHandler accepts one position fix and returns the zone
// verdict for it.
func UpdatePositionHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Lat       float64    `json:"lat"`
		Lon       float64    `json:"lon"`
		Timestamp *time.Time `json:"timestamp,omitempty"`
	}
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("sessionID")
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}

		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
			return errBadRequest(c, "lat must be -90..90 and lon -180..180")
		}

		at := time.Now()
		if req.Timestamp != nil {
			at = *req.Timestamp
		}

		status, err := deps.Presence.UpdatePosition(c.UserContext(), sessionID,
			domain.GeoPoint{Lat: req.Lat, Lon: req.Lon}, at)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(status)
	}
}

// HeartbeatHandler keeps a session alive when no fix is available, e.g.
// while the position sensor is erroring.
func HeartbeatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("sessionID")
		if err := deps.Presence.Heartbeat(c.UserContext(), sessionID); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// EmergencyHandler flags a session as in distress.
func EmergencyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("sessionID")
		if err := deps.Presence.SetEmergency(c.UserContext(), sessionID); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SessionTrackHandler returns a session's recent position history.
func SessionTrackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("sessionID")
		user, err := deps.Presence.Session(c.UserContext(), sessionID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if user == nil {
			return errNotFound(c, "unknown session")
		}

		limit := c.QueryInt("limit", 100)
		fixes, err := deps.Presence.Track(c.UserContext(), user.ID, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fixes)
	}
}

// ActiveUsersHandler lists sessions seen recently, with their zone status.
func ActiveUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		window := time.Duration(c.QueryInt("window_minutes", 5)) * time.Minute
		users, err := deps.Presence.ListActive(c.UserContext(), window)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(users)
	}
}

// ZoneHandler describes the allowed area so clients can draw it.
func ZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zone := deps.Presence.Zone()
		centerLat, centerLon := zone.Center()
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"bounds": zone,
			"center": domain.GeoPoint{Lat: centerLat, Lon: centerLon},
		})
	}
}

// ListPlacesHandler returns the point-of-interest catalogue.
func ListPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		places, err := deps.Places.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(places)
	}
}

// NearbyPlacesHandler returns places within a radius of a point.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 5000)
		limit := c.QueryInt("limit", 10)

		if lat == 0 || lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}

		places, err := deps.Places.Nearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(places)
	}
}

// GetPlaceHandler returns one place by id.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		place, err := deps.Places.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errInternal(c, err.Error())
		}
		if place == nil {
			return errNotFound(c, "place not found")
		}
		return c.JSON(place)
	}
}

// UpsertPlaceHandler creates or replaces a place in the catalogue.
func UpsertPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var place domain.Place
		if err := c.BodyParser(&place); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Places.Upsert(c.UserContext(), &place); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(place)
	}
}

// BroadcastNotificationHandler stores a notification and queues it for
// push delivery to every subscriber.
func BroadcastNotificationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var n domain.Notification
		if err := c.BodyParser(&n); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		created, err := deps.Notifications.Broadcast(c.UserContext(), &n)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// ListNotificationsHandler returns the broadcast log, newest first.
func ListNotificationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)

		items, total, err := deps.Notifications.History(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// UserNotificationsHandler returns a session's delivered notifications.
func UserNotificationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("sessionID")
		user, err := deps.Presence.Session(c.UserContext(), sessionID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if user == nil {
			return errNotFound(c, "unknown session")
		}

		items, err := deps.Notifications.ForUser(c.UserContext(), user.ID, c.QueryInt("limit", 20))
		if err != nil {
			return errInternal(c, err.Error())
		}

		unread := 0
		for _, n := range items {
			if !n.IsRead {
				unread++
			}
		}
		return c.JSON(fiber.Map{
			"data":   items,
			"unread": unread,
		})
	}
}

// MarkNotificationReadHandler marks one delivered notification as read.
func MarkNotificationReadHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		SessionID string `json:"session_id"`
	}
	return func(c *fiber.Ctx) error {
		notificationID := c.Params("id")

		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		user, err := deps.Presence.Session(c.UserContext(), req.SessionID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if user == nil {
			return errNotFound(c, "unknown session")
		}

		if err := deps.Notifications.MarkRead(c.UserContext(), notificationID, user.ID); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// VAPIDKeyHandler hands out the public VAPID key for push subscription.
func VAPIDKeyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.VAPIDPublicKey == "" {
			return errInternal(c, "push is not configured")
		}
		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(fiber.Map{"public_key": deps.VAPIDPublicKey})
	}
}

// SubscribePushHandler stores a browser push subscription.
func SubscribePushHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		SessionID string `json:"session_id"`
		Endpoint  string `json:"endpoint"`
		Keys      struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
			return errBadRequest(c, "endpoint and keys are required")
		}

		sub := &domain.PushSubscription{
			ID:        uuid.NewString(),
			SessionID: req.SessionID,
			Endpoint:  req.Endpoint,
			P256dh:    req.Keys.P256dh,
			Auth:      req.Keys.Auth,
		}
		if err := deps.Subscriptions.Upsert(c.UserContext(), sub); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	}
}

// UnsubscribePushHandler removes a push subscription by endpoint.
func UnsubscribePushHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Endpoint string `json:"endpoint"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Endpoint == "" {
			return errBadRequest(c, "endpoint is required")
		}
		if err := deps.Subscriptions.DeleteByEndpoint(c.UserContext(), req.Endpoint); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// TrackingStats holds row counts from the tracking tables.
type TrackingStats struct {
	ActiveUsers   int    `json:"active_users"`
	TrackFixes    int    `json:"track_fixes"`
	Places        int    `json:"places"`
	Notifications int    `json:"notifications"`
	Subscriptions int    `json:"subscriptions"`
	LastFix       string `json:"last_fix,omitempty"`
}

// StatsHandler returns row counts from the tracking tables.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats TrackingStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM active_users),
				(SELECT count(*) FROM user_locations),
				(SELECT count(*) FROM places),
				(SELECT count(*) FROM notifications),
				(SELECT count(*) FROM push_subscriptions),
				COALESCE((SELECT max(recorded_at)::text FROM user_locations), '')
		`)
		if err := row.Scan(&stats.ActiveUsers, &stats.TrackFixes, &stats.Places,
			&stats.Notifications, &stats.Subscriptions, &stats.LastFix); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}
