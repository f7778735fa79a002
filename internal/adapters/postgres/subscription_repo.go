package postgres

import (
	"context"

	"github.com/diavlos/boatzone/internal/core/domain"
)

// SubscriptionRepo implements ports.SubscriptionRepository with pgx.
// The endpoint URL is the natural key; browsers rotate it on resubscribe.
type SubscriptionRepo struct {
	db *DB
}

func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

func (r *SubscriptionRepo) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO push_subscriptions (id, session_id, endpoint, p256dh, auth)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint) DO UPDATE
		SET session_id = EXCLUDED.session_id,
		    p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
	`, sub.ID, sub.SessionID, sub.Endpoint, sub.P256dh, sub.Auth)
	return err
}

func (r *SubscriptionRepo) List(ctx context.Context) ([]domain.PushSubscription, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, session_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.PushSubscription
	for rows.Next() {
		var s domain.PushSubscription
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM push_subscriptions WHERE endpoint = $1
	`, endpoint)
	return err
}
