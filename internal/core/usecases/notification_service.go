package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diavlos/boatzone/internal/core/domain"
	"github.com/diavlos/boatzone/internal/core/ports"
)

// NotificationService persists broadcasts, fans them out over the event bus
// and keeps per-user receipt state.
type NotificationService struct {
	repo      ports.NotificationRepository
	publisher ports.EventPublisher
}

func NewNotificationService(repo ports.NotificationRepository, publisher ports.EventPublisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

// Broadcast stores a notification and publishes its push payload. Missing
// presentation fields fall back to the app defaults before anything leaves
// the service, so every subscriber sees a complete notification.
func (s *NotificationService) Broadcast(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Body) == "" {
		return nil, fmt.Errorf("notification needs a title or a body")
	}

	if strings.TrimSpace(n.Title) == "" {
		n.Title = domain.DefaultNotificationTitle
	}
	if strings.TrimSpace(n.Body) == "" {
		n.Body = domain.DefaultNotificationBody
	}
	if n.Icon == "" {
		n.Icon = domain.DefaultNotificationIcon
	}
	if n.Badge == "" {
		n.Badge = domain.DefaultNotificationBadge
	}
	if n.URL == "" {
		n.URL = domain.DefaultNotificationURL
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}

	if s.publisher != nil {
		payload, err := n.PushPayload()
		if err != nil {
			return nil, fmt.Errorf("encode push payload: %w", err)
		}
		if err := s.publisher.PublishBroadcast(ctx, payload); err != nil {
			return nil, fmt.Errorf("publish broadcast: %w", err)
		}
	}
	return n, nil
}

// History returns the broadcast log, newest first, with the total count for
// pagination.
func (s *NotificationService) History(ctx context.Context, limit, offset int) ([]domain.Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, nil
}

// ForUser returns a user's notifications with their read state.
func (s *NotificationService) ForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user notifications: %w", err)
	}
	return items, nil
}

// RecordDelivery notes that a notification reached a user's device.
func (s *NotificationService) RecordDelivery(ctx context.Context, notificationID, userID string) error {
	receipt := &domain.NotificationReceipt{
		ID:             uuid.NewString(),
		NotificationID: notificationID,
		UserID:         userID,
		DeliveredAt:    time.Now(),
	}
	if err := s.repo.RecordReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("record receipt: %w", err)
	}
	return nil
}

// MarkRead marks a delivered notification as read by the user.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.repo.MarkRead(ctx, notificationID, userID, time.Now()); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
