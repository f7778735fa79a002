package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// TrackRepo implements ports.TrackRepository with pgx. user_locations is
// append-only; rows are never updated.
type TrackRepo struct {
	db *DB
}

func NewTrackRepo(db *DB) *TrackRepo {
	return &TrackRepo{db: db}
}

func (r *TrackRepo) Insert(ctx context.Context, fix *domain.TrackFix) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO user_locations (id, user_id, location, inside_zone, distance_m, recorded_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7)
	`, fix.ID, fix.UserID, fix.Location.Lon, fix.Location.Lat,
		fix.Inside, fix.DistanceM, fix.Timestamp)
	return err
}

func (r *TrackRepo) LatestByUser(ctx context.Context, userID string) (*domain.TrackFix, error) {
	var f domain.TrackFix
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       inside_zone, distance_m, recorded_at
		FROM user_locations
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, userID).Scan(
		&f.ID, &f.UserID, &f.Location.Lat, &f.Location.Lon,
		&f.Inside, &f.DistanceM, &f.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *TrackRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.TrackFix, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       inside_zone, distance_m, recorded_at
		FROM user_locations
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fixes []domain.TrackFix
	for rows.Next() {
		var f domain.TrackFix
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Location.Lat, &f.Location.Lon,
			&f.Inside, &f.DistanceM, &f.Timestamp,
		); err != nil {
			return nil, err
		}
		fixes = append(fixes, f)
	}
	return fixes, rows.Err()
}
