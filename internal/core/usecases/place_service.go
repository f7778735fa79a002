package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/diavlos/boatzone/internal/core/domain"
	"github.com/diavlos/boatzone/internal/core/ports"
	"github.com/diavlos/boatzone/internal/pkg/geospatial"
)

const (
	placesCacheKey = "places:all"
	placesCacheTTL = 300 // seconds
)

// PlaceService serves the point-of-interest catalogue. The full list is
// small and nearly static, so reads go through the cache.
type PlaceService struct {
	repo  ports.PlaceRepository
	cache ports.CacheService
}

func NewPlaceService(repo ports.PlaceRepository, cache ports.CacheService) *PlaceService {
	return &PlaceService{repo: repo, cache: cache}
}

// List returns all places, cached for a few minutes. A cache failure is
// logged and falls through to the repository.
func (s *PlaceService) List(ctx context.Context) ([]domain.Place, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, placesCacheKey); err == nil && data != nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				return places, nil
			}
			slog.Warn("corrupt places cache entry, refetching")
		}
	}

	places, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(places); err == nil {
			if err := s.cache.Set(ctx, placesCacheKey, data, placesCacheTTL); err != nil {
				slog.Warn("cache places failed", "error", err)
			}
		}
	}
	return places, nil
}

// Get returns one place by id.
func (s *PlaceService) Get(ctx context.Context, id string) (*domain.Place, error) {
	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}
	return place, nil
}

// Nearby returns places within radiusM meters of the given point, closest
// first, with the Distance field filled in.
func (s *PlaceService) Nearby(ctx context.Context, lat, lon, radiusM float64, limit int) ([]domain.Place, error) {
	if radiusM <= 0 {
		radiusM = 5000
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	places, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var nearby []domain.Place
	for _, p := range places {
		d := geospatial.Haversine(lat, lon, p.Location.Lat, p.Location.Lon)
		if d > radiusM {
			continue
		}
		dist := d
		p.Distance = &dist
		nearby = append(nearby, p)
	}
	sort.Slice(nearby, func(i, j int) bool {
		return *nearby[i].Distance < *nearby[j].Distance
	})
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// Upsert creates or replaces a place and invalidates the list cache.
func (s *PlaceService) Upsert(ctx context.Context, place *domain.Place) error {
	if place.Name == "" {
		return fmt.Errorf("place name must not be empty")
	}
	if place.ID == "" {
		place.ID = uuid.NewString()
	}
	if err := s.repo.Upsert(ctx, place); err != nil {
		return fmt.Errorf("upsert place: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, placesCacheKey); err != nil {
			slog.Warn("invalidate places cache failed", "error", err)
		}
	}
	return nil
}
