package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// ActiveUserRepo implements ports.ActiveUserRepository with pgx.
type ActiveUserRepo struct {
	db *DB
}

func NewActiveUserRepo(db *DB) *ActiveUserRepo {
	return &ActiveUserRepo{db: db}
}

// GetBySessionID returns the session's user, or nil when unknown.
func (r *ActiveUserRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.ActiveUser, error) {
	var (
		u        domain.ActiveUser
		lat, lon *float64
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, session_id,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       status, last_seen, created_at, updated_at
		FROM active_users WHERE session_id = $1
	`, sessionID).Scan(
		&u.ID, &u.SessionID, &lat, &lon,
		&u.Status, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		u.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	return &u, nil
}

func (r *ActiveUserRepo) Create(ctx context.Context, user *domain.ActiveUser) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO active_users (id, session_id, status, last_seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE
		SET status = EXCLUDED.status, last_seen = EXCLUDED.last_seen,
		    updated_at = EXCLUDED.updated_at
	`, user.ID, user.SessionID, user.Status, user.LastSeen, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *ActiveUserRepo) UpdatePosition(ctx context.Context, sessionID string, loc domain.GeoPoint, seenAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE active_users
		SET location = ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
		    last_seen = $3, updated_at = now()
		WHERE session_id = $4
	`, loc.Lon, loc.Lat, seenAt, sessionID)
	return err
}

func (r *ActiveUserRepo) Heartbeat(ctx context.Context, sessionID string, seenAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE active_users
		SET last_seen = $1, status = CASE WHEN status = $2 THEN $3 ELSE status END,
		    updated_at = now()
		WHERE session_id = $4
	`, seenAt, domain.StatusInactive, domain.StatusActive, sessionID)
	return err
}

func (r *ActiveUserRepo) SetStatus(ctx context.Context, sessionID, status string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE active_users SET status = $1, updated_at = now()
		WHERE session_id = $2
	`, status, sessionID)
	return err
}

func (r *ActiveUserRepo) ListActive(ctx context.Context, activeSince time.Time) ([]domain.ActiveUser, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, session_id,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       status, last_seen, created_at, updated_at
		FROM active_users
		WHERE last_seen >= $1 AND status <> $2
		ORDER BY last_seen DESC
	`, activeSince, domain.StatusInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.ActiveUser
	for rows.Next() {
		var (
			u        domain.ActiveUser
			lat, lon *float64
		)
		if err := rows.Scan(
			&u.ID, &u.SessionID, &lat, &lon,
			&u.Status, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if lat != nil && lon != nil {
			u.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// MarkInactive flags sessions unseen since staleBefore and returns their
// session IDs so callers can release any per-session state they hold.
func (r *ActiveUserRepo) MarkInactive(ctx context.Context, staleBefore time.Time) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		UPDATE active_users SET status = $1, updated_at = now()
		WHERE last_seen < $2 AND status <> $1
		RETURNING session_id
	`, domain.StatusInactive, staleBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swept []string
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, err
		}
		swept = append(swept, sessionID)
	}
	return swept, rows.Err()
}
