package gateway

import (
	"context"
	"fmt"
	"log/slog"
)

// Router resolves intercepted requests against the current cache bucket and
// the upstream origin. Construct with NewRouter, then call Install and
// Activate once before routing.
type Router struct {
	cfg    Config
	store  BucketStore
	fetch  Fetcher
	bucket Bucket
}

// NewRouter builds a router. The bucket is opened by Install.
func NewRouter(cfg Config, store BucketStore, fetch Fetcher) *Router {
	if cfg.ShellPath == "" {
		cfg.ShellPath = "/navigator.html"
	}
	return &Router{cfg: cfg, store: store, fetch: fetch}
}

// Install opens the current-version bucket and pre-populates it with the app
// shell and the configured immutable asset list. The bucket stays usable even
// if pre-population fails, so callers may treat the returned error as a
// warning when the upstream is temporarily unreachable.
func (r *Router) Install(ctx context.Context) error {
	bucket, err := r.store.Open(ctx, r.cfg.Version)
	if err != nil {
		return fmt.Errorf("open bucket %s: %w", r.cfg.Version, err)
	}
	r.bucket = bucket

	paths := append([]string{r.cfg.ShellPath}, r.cfg.Precache...)
	for _, path := range paths {
		res, err := r.fetch.Fetch(ctx, Request{Method: "GET", Path: path})
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if !res.OK() {
			return fmt.Errorf("precache %s: upstream status %d", path, res.StatusCode)
		}
		if err := bucket.Put(ctx, path, res); err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
	}
	return nil
}

// Activate deletes every bucket whose name does not match the current
// version. Bumping Config.Version and re-running Install+Activate is the
// sole cache invalidation mechanism.
func (r *Router) Activate(ctx context.Context) error {
	names, err := r.store.Names(ctx)
	if err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}
	for _, name := range names {
		if name == r.cfg.Version {
			continue
		}
		if err := r.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete bucket %s: %w", name, err)
		}
		slog.Info("gateway: stale cache bucket deleted", "bucket", name, "current", r.cfg.Version)
	}
	return nil
}

// Route resolves a single request. Every branch terminates in a concrete
// Result; network failures downgrade to cache or a synthesized 503 and are
// never propagated.
func (r *Router) Route(ctx context.Context, req Request) Result {
	// Cross-origin (map tiles, CDNs): not ours to intercept.
	if req.Host != "" && r.cfg.Origin != "" && req.Host != r.cfg.Origin {
		return Result{Outcome: OutcomeBypass}
	}

	if isNavigation(req) {
		return r.routeNavigation(ctx, req)
	}
	if isStatic(req.Path, r.cfg.staticExts()) {
		return r.routeStatic(ctx, req)
	}
	return r.routeDynamic(ctx, req)
}

// match is bucket.Match tolerant of a router that has not installed yet.
func (r *Router) match(ctx context.Context, key string) (*Response, bool) {
	if r.bucket == nil {
		return nil, false
	}
	res, ok, _ := r.bucket.Match(ctx, key)
	return res, ok
}

// routeNavigation always tries the network first and never caches the
// result, so the app shell cannot go stale after a deployment. Only a full
// network failure degrades to the pre-cached shell, then to 503.
func (r *Router) routeNavigation(ctx context.Context, req Request) Result {
	res, err := r.fetch.Fetch(ctx, req)
	if err == nil {
		return Result{Outcome: OutcomeNetwork, Response: res}
	}

	if cached, ok := r.match(ctx, r.cfg.ShellPath); ok {
		slog.Warn("gateway: offline, serving cached shell", "path", req.Path, "error", err)
		return Result{Outcome: OutcomeShell, Response: cached}
	}
	return Result{Outcome: OutcomeOffline, Response: offlineResponse()}
}

// routeStatic serves immutable assets cache-first: a cached copy answers
// immediately with no upstream round-trip; a miss fetches and stores any 2xx
// response for next time.
func (r *Router) routeStatic(ctx context.Context, req Request) Result {
	if cached, ok := r.match(ctx, req.Path); ok {
		return Result{Outcome: OutcomeCache, Response: cached}
	}

	res, err := r.fetch.Fetch(ctx, req)
	if err != nil {
		return Result{Outcome: OutcomeOffline, Response: offlineResponse()}
	}

	stored := false
	if res.OK() && r.bucket != nil {
		if err := r.bucket.Put(ctx, req.Path, res); err != nil {
			slog.Warn("gateway: cache store failed", "path", req.Path, "error", err)
		} else {
			stored = true
		}
	}
	return Result{Outcome: OutcomeNetwork, Response: res, Stored: stored}
}

// routeDynamic serves API-style requests network-first with a cache
// fallback. Dynamic responses are never stored; a fallback hit can only come
// from pre-cached content.
func (r *Router) routeDynamic(ctx context.Context, req Request) Result {
	res, err := r.fetch.Fetch(ctx, req)
	if err == nil {
		return Result{Outcome: OutcomeNetwork, Response: res}
	}

	if cached, ok := r.match(ctx, req.Path); ok {
		return Result{Outcome: OutcomeCache, Response: cached}
	}
	return Result{Outcome: OutcomeOffline, Response: offlineResponse()}
}
