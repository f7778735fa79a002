// Package gateway implements the PWA asset gateway: a request router with a
// small decision table (origin check → navigation → static extension →
// fallthrough) backed by versioned cache buckets. It mirrors the offline
// semantics of the client's service worker so the app shell stays
// network-fresh after a deploy while static assets survive connectivity loss.
package gateway

import (
	"context"
	"net/http"
	"strings"
)

// DefaultStaticExts is the allow-list of immutable asset extensions served
// cache-first. Matching is case-insensitive.
var DefaultStaticExts = []string{
	".js", ".css", ".png", ".jpg", ".jpeg", ".webp", ".gif", ".svg", ".ico", ".woff", ".woff2",
}

// Config controls routing. Version names the current cache bucket; bumping it
// is the sole mechanism for invalidating previously cached entries.
type Config struct {
	Version    string   // bucket name, e.g. "boatzone-static-v1.4"
	Origin     string   // own origin host; other hosts are bypassed
	ShellPath  string   // app shell document served to offline navigations
	Precache   []string // asset paths fetched and stored during Install
	StaticExts []string // defaults to DefaultStaticExts when empty
}

func (c Config) staticExts() []string {
	if len(c.StaticExts) == 0 {
		return DefaultStaticExts
	}
	return c.StaticExts
}

// Request is the routing view of an intercepted request.
type Request struct {
	Method   string
	Host     string // target host, used for the origin check
	Path     string
	Accept   string
	Navigate bool // platform navigation mode flag
}

// Response is a stored or fetched response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the response may be cached (2xx).
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Outcome identifies which branch of the decision table resolved a request.
type Outcome int

const (
	OutcomeBypass  Outcome = iota // cross-origin, not intercepted
	OutcomeNetwork                // served from a live upstream fetch
	OutcomeCache                  // served from the current bucket
	OutcomeShell                  // offline navigation served the cached shell
	OutcomeOffline                // synthesized 503
)

// String names the outcome for logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeBypass:
		return "bypass"
	case OutcomeNetwork:
		return "network"
	case OutcomeCache:
		return "cache"
	case OutcomeShell:
		return "shell"
	case OutcomeOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Result is the resolution of one routed request. Response is nil only for
// OutcomeBypass. Stored is true when a copy was written to the bucket.
type Result struct {
	Outcome  Outcome
	Response *Response
	Stored   bool
}

// Fetcher performs the upstream network fetch.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// isNavigation classifies requests that load the HTML shell: the platform
// navigation flag, or a GET whose Accept header asks for HTML.
func isNavigation(req Request) bool {
	if req.Navigate {
		return true
	}
	return req.Method == http.MethodGet &&
		strings.Contains(strings.ToLower(req.Accept), "text/html")
}

// isStatic matches the request path against the static extension allow-list.
func isStatic(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// offlineResponse synthesizes the 503 returned when neither network nor
// cache can resolve a request.
func offlineResponse() *Response {
	return &Response{
		StatusCode: http.StatusServiceUnavailable,
		Header:     http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:       []byte("Offline"),
	}
}
