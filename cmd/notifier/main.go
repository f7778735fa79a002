package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	natsadapter "github.com/diavlos/boatzone/internal/adapters/nats"
	"github.com/diavlos/boatzone/internal/adapters/postgres"
	"github.com/diavlos/boatzone/internal/adapters/webpush"
	"github.com/diavlos/boatzone/internal/core/domain"
	"github.com/diavlos/boatzone/internal/core/ports"
	"github.com/diavlos/boatzone/internal/pkg/config"
	"github.com/diavlos/boatzone/internal/pkg/logging"
	"github.com/diavlos/boatzone/internal/pkg/metrics"
)

// The notifier drains queued broadcasts and fans each one out to every
// registered WebPush subscription. Dead endpoints (404/410 from the push
// service) are pruned; successful deliveries get a receipt so the API can
// report per-user read state.
func main() {
	cfg, err := config.Load("boatzone-notifier")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("boatzone-notifier", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	sender, err := webpush.NewSender(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subject)
	if err != nil {
		log.Fatalf("webpush: %v", err)
	}

	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer subscriber.Close()

	w := &worker{
		subs:     postgres.NewSubscriptionRepo(db),
		receipts: postgres.NewNotificationRepo(db),
		users:    postgres.NewActiveUserRepo(db),
		sender:   sender,
	}

	if err := subscriber.SubscribeBroadcasts(ctx, w.deliver); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	slog.Info("notifier started", "nats_url", cfg.NATS.URL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down notifier")
	cancel()
}

type worker struct {
	subs     ports.SubscriptionRepository
	receipts ports.NotificationRepository
	users    ports.ActiveUserRepository
	sender   ports.PushSender
}

// deliver fans one broadcast payload out to all current subscriptions. It
// only returns an error when the subscription list itself cannot be read;
// per-endpoint failures are counted and logged but never fail the message,
// otherwise a single dead endpoint would hold up the whole queue.
func (w *worker) deliver(ctx context.Context, payload []byte) error {
	n := domain.NotificationFromPayload(payload)

	subs, err := w.subs.List(ctx)
	if err != nil {
		slog.Error("list subscriptions", "error", err)
		return err
	}
	if len(subs) == 0 {
		slog.Info("broadcast with no subscribers", "title", n.Title)
		return nil
	}

	sent, failed, pruned := 0, 0, 0
	for i := range subs {
		sub := &subs[i]

		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		gone, err := w.sender.Send(sendCtx, sub, payload)
		cancel()

		switch {
		case gone:
			pruned++
			metrics.PushPruned.Inc()
			if err := w.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				slog.Warn("prune subscription", "endpoint", sub.Endpoint, "error", err)
			}
		case err != nil:
			failed++
			metrics.PushFailed.Inc()
			slog.Warn("push delivery failed", "endpoint", sub.Endpoint, "error", err)
		default:
			sent++
			metrics.PushSent.Inc()
			w.recordReceipt(ctx, n.ID, sub.SessionID)
		}
	}

	slog.Info("broadcast delivered",
		"notification_id", n.ID,
		"sent", sent,
		"failed", failed,
		"pruned", pruned,
	)
	return nil
}

// recordReceipt resolves the subscription's session to a user and writes a
// delivery receipt. Payloads without an id (plain-text pushes) skip receipts.
func (w *worker) recordReceipt(ctx context.Context, notificationID, sessionID string) {
	if notificationID == "" || sessionID == "" {
		return
	}
	user, err := w.users.GetBySessionID(ctx, sessionID)
	if err != nil || user == nil {
		return
	}
	receipt := &domain.NotificationReceipt{
		ID:             uuid.NewString(),
		NotificationID: notificationID,
		UserID:         user.ID,
		DeliveredAt:    time.Now().UTC(),
	}
	if err := w.receipts.RecordReceipt(ctx, receipt); err != nil {
		slog.Warn("record receipt", "notification_id", notificationID, "error", err)
	}
}
