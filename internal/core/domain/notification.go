package domain

import (
	"encoding/json"
	"strings"
)

// Defaults applied to sparse or unparseable push payloads.
const (
	DefaultNotificationTitle = "BoatZone"
	DefaultNotificationBody  = "You have a new update."
	DefaultNotificationIcon  = "/icons/icon-192.png"
	DefaultNotificationBadge = "/icons/badge-72.png"
	DefaultNotificationURL   = "/"
)

// pushPayload mirrors the wire schema consumed by the client's service
// worker: { title?, body?, icon?, badge?, url? }, every field optional.
// The id travels along for delivery receipts; clients ignore it.
type pushPayload struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	URL   string `json:"url"`
}

// NotificationFromPayload builds a displayable notification from a raw push
// payload. Structured JSON is preferred; anything that fails to parse is
// treated as plain text under the generic title. Missing fields fall back to
// the defaults above, so a payload error never loses the message.
func NotificationFromPayload(data []byte) Notification {
	n := Notification{
		Title: DefaultNotificationTitle,
		Body:  DefaultNotificationBody,
		Icon:  DefaultNotificationIcon,
		Badge: DefaultNotificationBadge,
		URL:   DefaultNotificationURL,
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return n
	}

	var p pushPayload
	if err := json.Unmarshal(data, &p); err != nil {
		n.Body = trimmed
		return n
	}

	if p.ID != "" {
		n.ID = p.ID
	}
	if p.Title != "" {
		n.Title = p.Title
	}
	if p.Body != "" {
		n.Body = p.Body
	}
	if p.Icon != "" {
		n.Icon = p.Icon
	}
	if p.Badge != "" {
		n.Badge = p.Badge
	}
	if p.URL != "" {
		n.URL = p.URL
	}
	return n
}

// PushPayload serializes a notification into the wire schema the service
// worker consumes.
func (n Notification) PushPayload() ([]byte, error) {
	return json.Marshal(pushPayload{
		ID:    n.ID,
		Title: n.Title,
		Body:  n.Body,
		Icon:  n.Icon,
		Badge: n.Badge,
		URL:   n.URL,
	})
}
