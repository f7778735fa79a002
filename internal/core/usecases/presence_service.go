package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diavlos/boatzone/internal/core/domain"
	"github.com/diavlos/boatzone/internal/core/ports"
	"github.com/diavlos/boatzone/internal/pkg/geospatial"
	"github.com/diavlos/boatzone/internal/pkg/metrics"
)

// PresenceService tracks active navigator sessions: position updates with
// geofence evaluation and course estimation, heartbeats, and the emergency
// flag. Heading estimator state is per-session and in-memory; it resets only
// when a session re-initialises (stream restart).
type PresenceService struct {
	users     ports.ActiveUserRepository
	track     ports.TrackRepository
	publisher ports.EventPublisher
	zone      geospatial.Rect
	opts      geospatial.HeadingOptions

	mu       sync.Mutex
	headings map[string]geospatial.HeadingState
	inside   map[string]bool
}

// NewPresenceService creates a PresenceService for the given allowed area.
func NewPresenceService(
	users ports.ActiveUserRepository,
	track ports.TrackRepository,
	publisher ports.EventPublisher,
	zone geospatial.Rect,
	opts geospatial.HeadingOptions,
) *PresenceService {
	return &PresenceService{
		users:     users,
		track:     track,
		publisher: publisher,
		zone:      zone,
		opts:      opts,
		headings:  make(map[string]geospatial.HeadingState),
		inside:    make(map[string]bool),
	}
}

// Zone returns the configured allowed-area rectangle.
func (s *PresenceService) Zone() geospatial.Rect {
	return s.zone
}

// InitSession returns the user for a session, creating it on first contact.
// Re-initialising an existing session restarts its heading estimator.
func (s *PresenceService) InitSession(ctx context.Context, sessionID string) (*domain.ActiveUser, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id must not be empty")
	}

	now := time.Now()

	user, err := s.users.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if user != nil {
		if err := s.users.Heartbeat(ctx, sessionID, now); err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		s.resetEstimator(sessionID)
		user.LastSeen = now
		return user, nil
	}

	user = &domain.ActiveUser{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Status:    domain.StatusActive,
		LastSeen:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.resetEstimator(sessionID)
	return user, nil
}

// UpdatePosition records one position fix: persists it, evaluates the
// geofence, advances the course estimator, and publishes the live event.
// A breach event fires only on the inside→outside transition.
func (s *PresenceService) UpdatePosition(ctx context.Context, sessionID string, loc domain.GeoPoint, at time.Time) (*domain.ZoneStatus, error) {
	user, err := s.users.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}

	if at.IsZero() {
		at = time.Now()
	}

	status := s.evaluate(sessionID, loc, at)

	if err := s.users.UpdatePosition(ctx, sessionID, loc, at); err != nil {
		return nil, fmt.Errorf("update position: %w", err)
	}
	fix := &domain.TrackFix{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Location:  loc,
		Inside:    status.Inside,
		DistanceM: status.DistanceM,
		Timestamp: at,
	}
	if err := s.track.Insert(ctx, fix); err != nil {
		return nil, fmt.Errorf("insert track fix: %w", err)
	}
	metrics.PositionUpdates.Inc()

	if s.publisher != nil {
		event := &domain.PositionEvent{
			SessionID: sessionID,
			UserID:    user.ID,
			Location:  loc,
			Zone:      *status,
			Time:      at,
		}
		if err := s.publisher.PublishPosition(ctx, event); err != nil {
			slog.Warn("publish position failed", "session", sessionID, "error", err)
		}
	}

	if s.breached(sessionID, status.Inside) {
		metrics.GeofenceBreaches.Inc()
		breach := &domain.BreachEvent{
			SessionID: sessionID,
			UserID:    user.ID,
			Location:  loc,
			DistanceM: status.DistanceM,
			Time:      at,
		}
		if s.publisher != nil {
			if err := s.publisher.PublishBreach(ctx, breach); err != nil {
				slog.Warn("publish breach failed", "session", sessionID, "error", err)
			}
		}
	}

	return status, nil
}

// Session returns the user for a session without touching estimator state,
// or nil when the session is unknown.
func (s *PresenceService) Session(ctx context.Context, sessionID string) (*domain.ActiveUser, error) {
	user, err := s.users.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return user, nil
}

// Track returns a user's most recent fixes, newest first.
func (s *PresenceService) Track(ctx context.Context, userID string, limit int) ([]domain.TrackFix, error) {
	fixes, err := s.track.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list track: %w", err)
	}
	return fixes, nil
}

// Heartbeat bumps last_seen without touching coordinates. Used when the
// position sensor errors out: an absent position means no geofence or
// heading judgment, not a dead session.
func (s *PresenceService) Heartbeat(ctx context.Context, sessionID string) error {
	if err := s.users.Heartbeat(ctx, sessionID, time.Now()); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// SetEmergency flags a session as in distress.
func (s *PresenceService) SetEmergency(ctx context.Context, sessionID string) error {
	if err := s.users.SetStatus(ctx, sessionID, domain.StatusEmergency); err != nil {
		return fmt.Errorf("set emergency: %w", err)
	}
	return nil
}

// ListActive returns sessions seen within the window, each annotated with
// its current geofence status when a position is known.
func (s *PresenceService) ListActive(ctx context.Context, window time.Duration) ([]domain.ActiveUser, error) {
	if window <= 0 {
		window = 5 * time.Minute
	}
	users, err := s.users.ListActive(ctx, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range users {
		u := &users[i]
		if u.Location == nil {
			continue
		}
		zone := domain.ZoneStatus{
			Inside:    s.zone.Contains(u.Location.Lat, u.Location.Lon),
			DistanceM: s.zone.DistanceToEdge(u.Location.Lat, u.Location.Lon),
		}
		if st, ok := s.headings[u.SessionID]; ok && st.Phase == geospatial.HeadingStable {
			h := st.Heading
			zone.HeadingDeg = &h
		}
		u.Zone = &zone
	}
	return users, nil
}

// SweepStale marks sessions unseen for the given window as inactive and
// drops their estimator state. A swept session that resumes reporting warms
// up from scratch, the same as after a re-init.
func (s *PresenceService) SweepStale(ctx context.Context, window time.Duration) (int, error) {
	swept, err := s.users.MarkInactive(ctx, time.Now().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("sweep stale sessions: %w", err)
	}

	s.mu.Lock()
	for _, sessionID := range swept {
		delete(s.headings, sessionID)
		delete(s.inside, sessionID)
	}
	s.mu.Unlock()

	return len(swept), nil
}

// evaluate computes the zone status for a fix and advances the estimator.
func (s *PresenceService) evaluate(sessionID string, loc domain.GeoPoint, at time.Time) *domain.ZoneStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _ := s.headings[sessionID].Advance(loc.Lat, loc.Lon, at, s.opts)
	s.headings[sessionID] = next

	status := &domain.ZoneStatus{
		Inside:    s.zone.Contains(loc.Lat, loc.Lon),
		DistanceM: s.zone.DistanceToEdge(loc.Lat, loc.Lon),
	}
	if next.Phase == geospatial.HeadingStable {
		h := next.Heading
		status.HeadingDeg = &h
	}
	return status
}

// breached records the new inside/outside state and reports the
// inside→outside transition. A session whose first fix is already outside
// counts as a breach.
func (s *PresenceService) breached(sessionID string, inside bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, seen := s.inside[sessionID]
	s.inside[sessionID] = inside
	if inside {
		return false
	}
	return !seen || prev
}

func (s *PresenceService) resetEstimator(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.headings, sessionID)
	delete(s.inside, sessionID)
}
