// Package pagemeta fetches and parses page metadata for bookmark capture.
// Given a URL it extracts the title, a description, and the favicon URL
// the way a browser would discover them.
package pagemeta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/ratelimit"
)

const (
	// Outbound rate limit: 2 requests per second per host, burst of 4.
	defaultRPS   = 2.0
	defaultBurst = 4

	defaultTimeout = 15 * time.Second

	// maxBodySize caps how much of a page we read while looking for
	// metadata. Everything useful lives in <head> or the first screen.
	maxBodySize = 1 << 20 // 1 MiB
)

// Metadata is what capture extracted from a page.
type Metadata struct {
	Title       string
	Description string
	IconURL     string
	Canonical   string
}

// Fetcher is a rate-limited metadata fetcher.
type Fetcher struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewFetcher creates a metadata fetcher.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
}

// Close releases resources held by the fetcher.
func (f *Fetcher) Close() {
	f.limiter.Stop()
}

// Fetch downloads the page at pageURL and extracts its metadata.
// Requests to the same host are rate limited.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Metadata, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", base.Scheme)
	}

	if err := f.limiter.Wait(ctx, base.Hostname()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "PageTagz/1.0")

	f.logger.Debug("fetching page metadata", "url", pageURL)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	// The redirect target is the better base for relative icon links.
	finalURL := resp.Request.URL

	meta, err := Parse(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"), finalURL)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return meta, nil
}
