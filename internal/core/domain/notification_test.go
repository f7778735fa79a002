package domain_test

import (
	"testing"

	"github.com/diavlos/boatzone/internal/core/domain"
)

func TestNotificationFromPayload_Structured(t *testing.T) {
	n := domain.NotificationFromPayload([]byte(`{"title":"Weather Alert","body":"Storm","url":"/navigator"}`))

	if n.Title != "Weather Alert" {
		t.Errorf("expected title Weather Alert, got %q", n.Title)
	}
	if n.Body != "Storm" {
		t.Errorf("expected body Storm, got %q", n.Body)
	}
	if n.URL != "/navigator" {
		t.Errorf("expected url /navigator, got %q", n.URL)
	}
	// Unspecified fields keep their defaults.
	if n.Icon != domain.DefaultNotificationIcon {
		t.Errorf("expected default icon, got %q", n.Icon)
	}
	if n.Badge != domain.DefaultNotificationBadge {
		t.Errorf("expected default badge, got %q", n.Badge)
	}
}

func TestNotificationFromPayload_PlainText(t *testing.T) {
	n := domain.NotificationFromPayload([]byte("engine check at 14:00"))

	if n.Title != domain.DefaultNotificationTitle {
		t.Errorf("expected generic title, got %q", n.Title)
	}
	if n.Body != "engine check at 14:00" {
		t.Errorf("expected raw text as body, got %q", n.Body)
	}
	if n.URL != domain.DefaultNotificationURL {
		t.Errorf("expected root url, got %q", n.URL)
	}
}

func TestNotificationFromPayload_Empty(t *testing.T) {
	for _, payload := range [][]byte{nil, []byte(""), []byte("   ")} {
		n := domain.NotificationFromPayload(payload)
		if n.Title != domain.DefaultNotificationTitle || n.Body != domain.DefaultNotificationBody {
			t.Errorf("payload %q: expected full defaults, got %+v", payload, n)
		}
	}
}

func TestNotificationFromPayload_EmptyJSONFields(t *testing.T) {
	n := domain.NotificationFromPayload([]byte(`{"title":"","body":""}`))

	if n.Title != domain.DefaultNotificationTitle {
		t.Errorf("empty title should fall back, got %q", n.Title)
	}
	if n.Body != domain.DefaultNotificationBody {
		t.Errorf("empty body should fall back, got %q", n.Body)
	}
}

func TestPushPayloadRoundTrip(t *testing.T) {
	orig := domain.Notification{Title: "Dock closing", Body: "Return before 19:00", URL: "/navigator"}
	data, err := orig.PushPayload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := domain.NotificationFromPayload(data)
	if n.Title != orig.Title || n.Body != orig.Body || n.URL != orig.URL {
		t.Errorf("round trip mismatch: %+v", n)
	}
}
