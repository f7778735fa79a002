package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/diavlos/boatzone/internal/adapters/http"
	"github.com/diavlos/boatzone/internal/core/domain"
	"github.com/diavlos/boatzone/internal/core/usecases"
	"github.com/diavlos/boatzone/internal/gateway"
	"github.com/diavlos/boatzone/internal/pkg/geospatial"
)

// ---- Mock repositories ----

type mockUserRepo struct {
	users map[string]*domain.ActiveUser
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.ActiveUser)}
}

func (m *mockUserRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.ActiveUser, error) {
	return m.users[sessionID], nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *domain.ActiveUser) error {
	m.users[user.SessionID] = user
	return nil
}
func (m *mockUserRepo) UpdatePosition(ctx context.Context, sessionID string, loc domain.GeoPoint, seenAt time.Time) error {
	if u, ok := m.users[sessionID]; ok {
		u.Location = &loc
		u.LastSeen = seenAt
	}
	return nil
}
func (m *mockUserRepo) Heartbeat(ctx context.Context, sessionID string, seenAt time.Time) error {
	if u, ok := m.users[sessionID]; ok {
		u.LastSeen = seenAt
	}
	return nil
}
func (m *mockUserRepo) SetStatus(ctx context.Context, sessionID, status string) error {
	if u, ok := m.users[sessionID]; ok {
		u.Status = status
	}
	return nil
}
func (m *mockUserRepo) ListActive(ctx context.Context, activeSince time.Time) ([]domain.ActiveUser, error) {
	var out []domain.ActiveUser
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}
func (m *mockUserRepo) MarkInactive(ctx context.Context, staleBefore time.Time) ([]string, error) {
	return nil, nil
}

type mockTrackRepo struct {
	fixes []domain.TrackFix
}

func (m *mockTrackRepo) Insert(ctx context.Context, fix *domain.TrackFix) error {
	m.fixes = append(m.fixes, *fix)
	return nil
}
func (m *mockTrackRepo) LatestByUser(ctx context.Context, userID string) (*domain.TrackFix, error) {
	return nil, nil
}
func (m *mockTrackRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.TrackFix, error) {
	return m.fixes, nil
}

type mockPlaceRepo struct {
	places []domain.Place
}

func (m *mockPlaceRepo) List(ctx context.Context) ([]domain.Place, error) { return m.places, nil }
func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	for _, p := range m.places {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}
func (m *mockPlaceRepo) Upsert(ctx context.Context, place *domain.Place) error { return nil }

type mockNotificationRepo struct {
	created []domain.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	m.created = append(m.created, *n)
	return nil
}
func (m *mockNotificationRepo) List(ctx context.Context, limit, offset int) ([]domain.Notification, int, error) {
	return m.created, len(m.created), nil
}
func (m *mockNotificationRepo) RecordReceipt(ctx context.Context, receipt *domain.NotificationReceipt) error {
	return nil
}
func (m *mockNotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return nil, nil
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) error {
	return nil
}

type mockSubscriptionRepo struct {
	subs []domain.PushSubscription
}

func (m *mockSubscriptionRepo) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	m.subs = append(m.subs, *sub)
	return nil
}
func (m *mockSubscriptionRepo) List(ctx context.Context) ([]domain.PushSubscription, error) {
	return m.subs, nil
}
func (m *mockSubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return nil
}

// ---- Test helpers ----

const (
	testCenterLat = 38.715482
	testCenterLon = 20.755199
)

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	zone := geospatial.RectFromCenter(testCenterLat, testCenterLon, 4500, 8500)
	d := &handler.Dependencies{
		Presence:      usecases.NewPresenceService(newMockUserRepo(), &mockTrackRepo{}, nil, zone, geospatial.HeadingOptions{}),
		Notifications: usecases.NewNotificationService(&mockNotificationRepo{}, nil),
		Places:        usecases.NewPlaceService(&mockPlaceRepo{}, nil),
		Subscriptions: &mockSubscriptionRepo{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// ---- Session handler tests ----

func TestInitSession_CreatesUser(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/sessions", `{"session_id":"sess-1"}`)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var user domain.ActiveUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatal(err)
	}
	if user.SessionID != "sess-1" {
		t.Errorf("expected session sess-1, got %s", user.SessionID)
	}
	if user.Status != domain.StatusActive {
		t.Errorf("expected active status, got %s", user.Status)
	}
}

func TestInitSession_MissingID(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/sessions", `{}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdatePosition_InsideZone(t *testing.T) {
	app := setupApp(makeDeps())

	if resp := postJSON(t, app, "/v1/sessions", `{"session_id":"sess-1"}`); resp.StatusCode != 201 {
		t.Fatalf("init session failed: %d", resp.StatusCode)
	}

	resp := postJSON(t, app, "/v1/sessions/sess-1/position",
		`{"lat":38.715482,"lon":20.755199}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var status domain.ZoneStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status.Inside {
		t.Error("expected center point inside the zone")
	}
	if status.DistanceM < 4000 || status.DistanceM > 5000 {
		t.Errorf("expected ~4500m to edge, got %.0f", status.DistanceM)
	}
}

func TestUpdatePosition_OutsideZone(t *testing.T) {
	app := setupApp(makeDeps())

	postJSON(t, app, "/v1/sessions", `{"session_id":"sess-1"}`)

	// ~10km north of center, past the 8.5km half height.
	resp := postJSON(t, app, "/v1/sessions/sess-1/position",
		`{"lat":38.805,"lon":20.755199}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var status domain.ZoneStatus
	json.NewDecoder(resp.Body).Decode(&status)
	if status.Inside {
		t.Error("expected point outside the zone")
	}
	if status.DistanceM <= 0 {
		t.Errorf("expected positive distance outside, got %.0f", status.DistanceM)
	}
}

func TestUpdatePosition_InvalidCoordinates(t *testing.T) {
	app := setupApp(makeDeps())
	postJSON(t, app, "/v1/sessions", `{"session_id":"sess-1"}`)

	resp := postJSON(t, app, "/v1/sessions/sess-1/position", `{"lat":91,"lon":0}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdatePosition_UnknownSession(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/sessions/ghost/position", `{"lat":38.7,"lon":20.7}`)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHeartbeat_NoContent(t *testing.T) {
	app := setupApp(makeDeps())
	postJSON(t, app, "/v1/sessions", `{"session_id":"sess-1"}`)

	resp := postJSON(t, app, "/v1/sessions/sess-1/heartbeat", ``)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

// ---- Zone handler tests ----

func TestZone_ReturnsBoundsAndCenter(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/zone", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Bounds geospatial.Rect `json:"bounds"`
		Center domain.GeoPoint `json:"center"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Bounds.SWLat >= result.Bounds.NELat {
		t.Error("expected south edge below north edge")
	}
	if diff := result.Center.Lat - testCenterLat; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("expected center lat %.6f, got %.6f", testCenterLat, result.Center.Lat)
	}
}

// ---- Place handler tests ----

func TestNearbyPlaces_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Places = usecases.NewPlaceService(&mockPlaceRepo{
			places: []domain.Place{
				{ID: "p1", Name: "Vathiavali Beach", Type: "Beach",
					Location: domain.GeoPoint{Lat: 38.7081, Lon: 20.7465}},
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=38.71&lon=20.746&radius=5000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var places []domain.Place
	json.NewDecoder(resp.Body).Decode(&places)
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(places))
	}
	if places[0].Distance == nil {
		t.Error("expected distance filled in")
	}
}

func TestNearbyPlaces_MissingCoords(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/places/nearby", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Notification handler tests ----

func TestBroadcastNotification_Success(t *testing.T) {
	repo := &mockNotificationRepo{}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Notifications = usecases.NewNotificationService(repo, nil)
	})
	app := setupApp(deps)

	resp := postJSON(t, app, "/v1/notifications",
		`{"title":"Weather warning","body":"Strong winds after 17:00."}`)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(repo.created))
	}
}

func TestBroadcastNotification_Empty(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/notifications", `{}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListNotifications_Paginated(t *testing.T) {
	repo := &mockNotificationRepo{created: []domain.Notification{{ID: "n1", Title: "t"}}}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Notifications = usecases.NewNotificationService(repo, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/notifications", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if link := resp.Header.Get("Link"); link == "" {
		t.Error("expected pagination Link header")
	}

	var result struct {
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 1 {
		t.Errorf("expected total 1, got %d", result.Pagination.Total)
	}
}

// ---- Push handler tests ----

func TestSubscribePush_Success(t *testing.T) {
	subs := &mockSubscriptionRepo{}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Subscriptions = subs
	})
	app := setupApp(deps)

	resp := postJSON(t, app, "/v1/push/subscriptions",
		`{"session_id":"sess-1","endpoint":"https://push.example/abc","keys":{"p256dh":"pk","auth":"ak"}}`)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(subs.subs) != 1 {
		t.Fatalf("expected 1 stored subscription, got %d", len(subs.subs))
	}
}

func TestSubscribePush_MissingKeys(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/push/subscriptions",
		`{"session_id":"sess-1","endpoint":"https://push.example/abc"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVAPIDKey_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/push/key", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500 when push unconfigured, got %d", resp.StatusCode)
	}
}

func TestVAPIDKey_KeepsHandlerCachePolicy(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.VAPIDPublicKey = "test-public-key"
	}))

	req := httptest.NewRequest("GET", "/v1/push/key", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// The key rotates rarely, so the handler's day-long policy must survive
	// the caching middleware's generic /v1/ default.
	if got := resp.Header.Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("expected handler cache policy to win, got %q", got)
	}
}

// ---- Gateway catch-all tests ----

type cannedFetcher struct {
	responses map[string]*gateway.Response
}

func (f *cannedFetcher) Fetch(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	if res, ok := f.responses[req.Path]; ok {
		return res, nil
	}
	return &gateway.Response{StatusCode: 404, Header: make(http.Header)}, nil
}

func TestGatewayCatchAll_ServesStaticAsset(t *testing.T) {
	fetch := &cannedFetcher{responses: map[string]*gateway.Response{
		"/navigator.html": {StatusCode: 200, Header: http.Header{"Content-Type": []string{"text/html"}}, Body: []byte("<html></html>")},
		"/app.js":         {StatusCode: 200, Header: http.Header{"Content-Type": []string{"text/javascript"}}, Body: []byte("console.log(1)")},
	}}
	router := gateway.NewRouter(gateway.Config{Version: "boatzone-static-v1.4"}, gateway.NewMemoryStore(), fetch)
	if err := router.Install(context.Background()); err != nil {
		t.Fatalf("install: %v", err)
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Gateway = router
	})
	app := setupApp(deps)

	// First request populates the cache, second is served from it.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/app.js", nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
		if i == 1 && resp.Header.Get("X-Served-From") != "cache" {
			t.Error("expected second request served from cache")
		}
	}
}

func TestGatewayCatchAll_APIRoutesUnaffected(t *testing.T) {
	router := gateway.NewRouter(gateway.Config{Version: "boatzone-static-v1.4"},
		gateway.NewMemoryStore(), &cannedFetcher{})
	_ = router.Install(context.Background())

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Gateway = router
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected health endpoint to answer 200, got %d", resp.StatusCode)
	}
}
