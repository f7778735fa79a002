package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// UpstreamFetcher fetches assets from the origin that hosts the built PWA
// bundle (a static file server or object-store website endpoint).
type UpstreamFetcher struct {
	baseURL string
	client  *http.Client
}

// NewUpstreamFetcher creates a fetcher for the given origin base URL.
func NewUpstreamFetcher(baseURL string, timeout time.Duration) *UpstreamFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &UpstreamFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch performs the upstream request. Response bodies are read fully so
// stored copies are self-contained.
func (f *UpstreamFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, f.baseURL+req.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}

	httpRes, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch %s: %w", req.Path, err)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body %s: %w", req.Path, err)
	}

	header := make(http.Header, 4)
	for _, h := range []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified"} {
		if v := httpRes.Header.Get(h); v != "" {
			header.Set(h, v)
		}
	}

	return &Response{StatusCode: httpRes.StatusCode, Header: header, Body: body}, nil
}
