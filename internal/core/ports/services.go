package ports

import (
	"context"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPosition(ctx context.Context, event *domain.PositionEvent) error
	PublishBreach(ctx context.Context, event *domain.BreachEvent) error
	PublishBroadcast(ctx context.Context, payload []byte) error
}

// EventSubscriber consumes domain events from a message broker.
type EventSubscriber interface {
	SubscribeBroadcasts(ctx context.Context, handler func(ctx context.Context, payload []byte) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// PushSender delivers one WebPush message to one subscription.
// gone reports that the endpoint no longer exists and should be pruned.
type PushSender interface {
	Send(ctx context.Context, sub *domain.PushSubscription, payload []byte) (gone bool, err error)
}
