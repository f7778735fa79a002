package ports

import (
	"context"
	"time"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// ActiveUserRepository persists tracked sessions.
type ActiveUserRepository interface {
	GetBySessionID(ctx context.Context, sessionID string) (*domain.ActiveUser, error)
	Create(ctx context.Context, user *domain.ActiveUser) error
	UpdatePosition(ctx context.Context, sessionID string, loc domain.GeoPoint, seenAt time.Time) error
	Heartbeat(ctx context.Context, sessionID string, seenAt time.Time) error
	SetStatus(ctx context.Context, sessionID, status string) error
	ListActive(ctx context.Context, activeSince time.Time) ([]domain.ActiveUser, error)
	MarkInactive(ctx context.Context, staleBefore time.Time) ([]string, error)
}

// TrackRepository persists the append-only position history.
type TrackRepository interface {
	Insert(ctx context.Context, fix *domain.TrackFix) error
	LatestByUser(ctx context.Context, userID string) (*domain.TrackFix, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.TrackFix, error)
}

// PlaceRepository persists points of interest.
type PlaceRepository interface {
	List(ctx context.Context) ([]domain.Place, error)
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	Upsert(ctx context.Context, place *domain.Place) error
}

// SubscriptionRepository persists WebPush subscriptions.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *domain.PushSubscription) error
	List(ctx context.Context) ([]domain.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// NotificationRepository persists broadcasts and their delivery receipts.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, limit, offset int) ([]domain.Notification, int, error)
	RecordReceipt(ctx context.Context, receipt *domain.NotificationReceipt) error
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) error
}
