package postgres

import (
	"context"
	"time"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// NotificationRepo implements ports.NotificationRepository with pgx.
type NotificationRepo struct {
	db *DB
}

func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notifications (id, title, body, icon, badge, url, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.Title, n.Body, n.Icon, n.Badge, n.URL,
		nilIfEmpty(n.CreatedBy), n.CreatedAt)
	return err
}

func (r *NotificationRepo) List(ctx context.Context, limit, offset int) ([]domain.Notification, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM notifications`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, title, body, COALESCE(icon, ''), COALESCE(badge, ''),
		       COALESCE(url, ''), COALESCE(created_by, ''), created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.Title, &n.Body, &n.Icon, &n.Badge,
			&n.URL, &n.CreatedBy, &n.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *NotificationRepo) RecordReceipt(ctx context.Context, receipt *domain.NotificationReceipt) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notification_receipts (id, notification_id, user_id, delivered_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (notification_id, user_id) DO NOTHING
	`, receipt.ID, receipt.NotificationID, receipt.UserID, receipt.DeliveredAt)
	return err
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT n.id, n.title, n.body, COALESCE(n.icon, ''), COALESCE(n.badge, ''),
		       COALESCE(n.url, ''), COALESCE(n.created_by, ''), n.created_at,
		       r.read_at IS NOT NULL as is_read
		FROM notifications n
		JOIN notification_receipts r ON r.notification_id = n.id
		WHERE r.user_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.Title, &n.Body, &n.Icon, &n.Badge,
			&n.URL, &n.CreatedBy, &n.CreatedAt, &n.IsRead,
		); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE notification_receipts SET read_at = $1
		WHERE notification_id = $2 AND user_id = $3 AND read_at IS NULL
	`, readAt, notificationID, userID)
	return err
}
