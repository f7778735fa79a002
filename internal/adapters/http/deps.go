package http

import (
	"github.com/nats-io/nats.go"

	"github.com/diavlos/boatzone/internal/adapters/postgres"
	"github.com/diavlos/boatzone/internal/adapters/valkey"
	"github.com/diavlos/boatzone/internal/core/ports"
	"github.com/diavlos/boatzone/internal/core/usecases"
	"github.com/diavlos/boatzone/internal/gateway"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Presence      *usecases.PresenceService
	Notifications *usecases.NotificationService
	Places        *usecases.PlaceService
	Subscriptions ports.SubscriptionRepository
	Gateway       *gateway.Router
	NATS          *nats.Conn
	DB            *postgres.DB
	Cache         *valkey.Cache

	// VAPIDPublicKey is handed to clients so they can subscribe to push.
	VAPIDPublicKey string
}
