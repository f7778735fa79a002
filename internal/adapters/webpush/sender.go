// Package webpush delivers notifications to browser push endpoints using
// VAPID-authenticated WebPush.
package webpush

import (
	"context"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// Sender implements ports.PushSender with VAPID keys issued for the app.
type Sender struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
}

// NewSender creates a Sender. subject is the VAPID contact, a mailto: or
// https: URL the push service may use to reach the operator.
func NewSender(publicKey, privateKey, subject string) (*Sender, error) {
	if publicKey == "" || privateKey == "" {
		return nil, fmt.Errorf("vapid key pair is required")
	}
	if subject == "" {
		subject = "mailto:ops@boatzone.example"
	}
	return &Sender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		ttl:        int((6 * time.Hour).Seconds()),
	}, nil
}

// Send pushes one payload to one subscription. gone is true when the push
// service reports the endpoint no longer exists, so the caller can prune it.
func (s *Sender) Send(ctx context.Context, sub *domain.PushSubscription, payload []byte) (bool, error) {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	res, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
	})
	if err != nil {
		return false, fmt.Errorf("webpush send: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return true, nil
	case res.StatusCode >= 400:
		return false, fmt.Errorf("webpush send: push service returned %d", res.StatusCode)
	}
	return false, nil
}
