package usecases_test

import (
	"context"
	"sync"
	"testing"

	"github.com/diavlos/boatzone/internal/core/domain"
	"github.com/diavlos/boatzone/internal/core/usecases"
)

// --- Mock PlaceRepository ---

type mockPlaceRepo struct {
	mu        sync.Mutex
	listCalls int
	places    []domain.Place
	upserted  []domain.Place
}

func (m *mockPlaceRepo) List(ctx context.Context) ([]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return m.places, nil
}

func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	for _, p := range m.places {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockPlaceRepo) Upsert(ctx context.Context, place *domain.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, *place)
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.deletes++
	return nil
}

// --- Tests ---

func samplePlaces() []domain.Place {
	return []domain.Place{
		{ID: "p1", Name: "Vathiavali Beach", Type: "Beach",
			Location: domain.GeoPoint{Lat: 38.7081, Lon: 20.7465}},
		{ID: "p2", Name: "Papanikolis Cave", Type: "Cave",
			Location: domain.GeoPoint{Lat: 38.6300, Lon: 20.7561}},
		{ID: "p3", Name: "Karnagio Restaurant", Type: "Restaurant",
			Location: domain.GeoPoint{Lat: 38.7889, Lon: 20.7215}},
	}
}

func TestPlaceService_List_CachesSecondRead(t *testing.T) {
	repo := &mockPlaceRepo{places: samplePlaces()}
	cache := newMockCache()
	svc := usecases.NewPlaceService(repo, cache)

	first, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 places, got %d", len(first))
	}

	second, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 3 {
		t.Fatalf("expected 3 places from cache, got %d", len(second))
	}
	if repo.listCalls != 1 {
		t.Errorf("expected a single repository read, got %d", repo.listCalls)
	}
}

func TestPlaceService_List_NilCache(t *testing.T) {
	repo := &mockPlaceRepo{places: samplePlaces()}
	svc := usecases.NewPlaceService(repo, nil)

	places, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 3 {
		t.Fatalf("expected 3 places, got %d", len(places))
	}
}

func TestPlaceService_Nearby_SortsByDistance(t *testing.T) {
	repo := &mockPlaceRepo{places: samplePlaces()}
	svc := usecases.NewPlaceService(repo, nil)

	// Query from just north of Vathiavali Beach with a wide radius.
	nearby, err := svc.Nearby(context.Background(), 38.7100, 20.7465, 20000, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 3 {
		t.Fatalf("expected 3 places in range, got %d", len(nearby))
	}
	if nearby[0].Name != "Vathiavali Beach" {
		t.Errorf("expected the beach closest, got %s", nearby[0].Name)
	}
	for i, p := range nearby {
		if p.Distance == nil {
			t.Fatalf("expected distance set on result %d", i)
		}
		if i > 0 && *p.Distance < *nearby[i-1].Distance {
			t.Error("expected results ordered nearest first")
		}
	}
}

func TestPlaceService_Nearby_RadiusFilters(t *testing.T) {
	repo := &mockPlaceRepo{places: samplePlaces()}
	svc := usecases.NewPlaceService(repo, nil)

	nearby, err := svc.Nearby(context.Background(), 38.7100, 20.7465, 1000, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 1 {
		t.Fatalf("expected only the beach within 1km, got %d", len(nearby))
	}
}

func TestPlaceService_Upsert_InvalidatesCache(t *testing.T) {
	repo := &mockPlaceRepo{places: samplePlaces()}
	cache := newMockCache()
	svc := usecases.NewPlaceService(repo, cache)

	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := svc.Upsert(context.Background(), &domain.Place{
		Name: "Agios Ioannis Lake", Type: "Beach",
		Location: domain.GeoPoint{Lat: 38.6566, Lon: 20.6960},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.deletes != 1 {
		t.Errorf("expected 1 cache invalidation, got %d", cache.deletes)
	}
	if len(repo.upserted) != 1 || repo.upserted[0].ID == "" {
		t.Error("expected place stored with an assigned id")
	}
}

func TestPlaceService_Upsert_RequiresName(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)
	if err := svc.Upsert(context.Background(), &domain.Place{}); err == nil {
		t.Fatal("expected error for unnamed place")
	}
}
