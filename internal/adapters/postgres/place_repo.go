package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// PlaceRepo implements ports.PlaceRepository with pgx.
type PlaceRepo struct {
	db *DB
}

func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

func (r *PlaceRepo) List(ctx context.Context) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), type,
		       COALESCE(difficulty, ''), COALESCE(suggested_stay, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       created_at
		FROM places
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Type,
			&p.Difficulty, &p.SuggestedStay,
			&p.Location.Lat, &p.Location.Lon, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	var p domain.Place
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), type,
		       COALESCE(difficulty, ''), COALESCE(suggested_stay, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       created_at
		FROM places WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Type,
		&p.Difficulty, &p.SuggestedStay,
		&p.Location.Lat, &p.Location.Lon, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlaceRepo) Upsert(ctx context.Context, place *domain.Place) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO places (id, name, description, type, difficulty, suggested_stay, location)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
		    type = EXCLUDED.type, difficulty = EXCLUDED.difficulty,
		    suggested_stay = EXCLUDED.suggested_stay, location = EXCLUDED.location
	`, place.ID, place.Name, nilIfEmpty(place.Description), place.Type,
		nilIfEmpty(place.Difficulty), nilIfEmpty(place.SuggestedStay),
		place.Location.Lon, place.Location.Lat)
	return err
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
