package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/diavlos/boatzone/internal/adapters/http"
	natsadapter "github.com/diavlos/boatzone/internal/adapters/nats"
	"github.com/diavlos/boatzone/internal/adapters/postgres"
	"github.com/diavlos/boatzone/internal/adapters/valkey"
	"github.com/diavlos/boatzone/internal/core/ports"
	"github.com/diavlos/boatzone/internal/core/usecases"
	"github.com/diavlos/boatzone/internal/gateway"
	"github.com/diavlos/boatzone/internal/pkg/config"
	"github.com/diavlos/boatzone/internal/pkg/geospatial"
	"github.com/diavlos/boatzone/internal/pkg/logging"
	"github.com/diavlos/boatzone/internal/pkg/metrics"
	"github.com/diavlos/boatzone/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("boatzone-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("boatzone-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		nc = nil
	} else {
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	userRepo := postgres.NewActiveUserRepo(db)
	trackRepo := postgres.NewTrackRepo(db)
	placeRepo := postgres.NewPlaceRepo(db)
	subscriptionRepo := postgres.NewSubscriptionRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	// Zone geometry
	zone := geospatial.RectFromCenter(
		cfg.Zone.CenterLat, cfg.Zone.CenterLon,
		cfg.Zone.HalfWidthM, cfg.Zone.HalfHeightM,
	)

	// Use cases
	presenceSvc := usecases.NewPresenceService(userRepo, trackRepo, eventPublisher(nc), zone, geospatial.HeadingOptions{})
	notificationSvc := usecases.NewNotificationService(notificationRepo, eventPublisher(nc))
	placeSvc := usecases.NewPlaceService(placeRepo, cacheService(cache))

	// Asset gateway: cached copies live in Valkey when available so they
	// survive restarts, otherwise in process memory.
	var store gateway.BucketStore = gateway.NewMemoryStore()
	if cache != nil {
		store = valkey.NewBucketStore(cache)
	}
	gw := gateway.NewRouter(gateway.Config{
		Version:   cfg.Gateway.Version,
		Origin:    cfg.Gateway.Origin,
		ShellPath: cfg.Gateway.ShellPath,
		Precache:  cfg.Gateway.Precache,
	}, store, gateway.NewUpstreamFetcher(cfg.Gateway.UpstreamURL, 15*time.Second))
	if err := gw.Install(ctx); err != nil {
		slog.Warn("gateway precache incomplete, shell fallback may be unavailable", "error", err)
	}
	if err := gw.Activate(ctx); err != nil {
		slog.Warn("gateway stale bucket cleanup failed", "error", err)
	}

	deps := &http.Dependencies{
		Presence:       presenceSvc,
		Notifications:  notificationSvc,
		Places:         placeSvc,
		Subscriptions:  subscriptionRepo,
		Gateway:        gw,
		NATS:           natsConn,
		DB:             db,
		Cache:          cache,
		VAPIDPublicKey: cfg.Push.VAPIDPublicKey,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "BoatZone API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.boatzone.example",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Background sweep of sessions that stopped reporting
	go sweepStaleSessions(ctx, presenceSvc, time.Duration(cfg.Zone.StaleMinutes)*time.Minute)

	// Periodic DB pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// eventPublisher avoids handing a typed nil to the services when the
// broker is down at boot.
func eventPublisher(p *natsadapter.Publisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func cacheService(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}

// sweepStaleSessions marks sessions inactive after the configured window.
func sweepStaleSessions(ctx context.Context, svc *usecases.PresenceService, window time.Duration) {
	if window <= 0 {
		window = 10 * time.Minute
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := svc.SweepStale(ctx, window)
			if err != nil {
				slog.Warn("stale session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("stale sessions marked inactive", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
