package icons

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/pagetagz/pagetagz-server/internal/ratelimit"
)

const (
	// iconSize is the uniform edge length icons are scaled to.
	// The popup renders them at 16px, so 32px covers retina displays.
	iconSize = 32

	// maxIconBytes caps the raw download. Favicons over this are broken
	// or hostile.
	maxIconBytes = 512 << 10 // 512 KiB

	fetchTimeout = 10 * time.Second

	// Outbound rate limit per host.
	fetchRPS   = 1.0
	fetchBurst = 2
)

// Service fetches, normalizes and caches favicons.
type Service struct {
	cache   *Cache
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewService creates an icon service around the given cache.
func NewService(cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		cache: cache,
		http: &http.Client{
			Timeout: fetchTimeout,
		},
		limiter: ratelimit.New(fetchRPS, fetchBurst),
		logger:  logger,
	}
}

// Close releases resources held by the service.
func (s *Service) Close() {
	s.limiter.Stop()
}

// Get returns the icon for host, fetching from iconURL on a cache miss.
func (s *Service) Get(ctx context.Context, host, iconURL string) (*Icon, error) {
	icon, err := s.cache.Get(host)
	if err == nil {
		return icon, nil
	}
	if !errors.Is(err, ErrNotCached) {
		return nil, err
	}

	return s.fetch(ctx, host, iconURL)
}

// Cached returns the icon for host without fetching.
func (s *Service) Cached(host string) (*Icon, error) {
	return s.cache.Get(host)
}

// fetch downloads, normalizes and caches the icon at iconURL.
func (s *Service) fetch(ctx context.Context, host, iconURL string) (*Icon, error) {
	u, err := url.Parse(iconURL)
	if err != nil {
		return nil, fmt.Errorf("parse icon url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported icon scheme %q", u.Scheme)
	}

	if err := s.limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "PageTagz/1.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch icon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch icon: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return nil, fmt.Errorf("read icon: %w", err)
	}

	normalized, hash, err := normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize icon: %w", err)
	}

	icon := &Icon{
		Host:      host,
		PNG:       normalized,
		BlurHash:  hash,
		SourceURL: iconURL,
		FetchedAt: time.Now(),
	}

	if err := s.cache.Put(icon); err != nil {
		// A failed cache write shouldn't fail the request.
		s.logger.Warn("failed to cache icon", "host", host, "error", err)
	}

	s.logger.Debug("icon fetched", "host", host, "bytes", len(normalized))

	return icon, nil
}

// normalize decodes raw image bytes, scales to iconSize and re-encodes
// as PNG. Returns the PNG bytes and a BlurHash placeholder.
func normalize(raw []byte) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}

	// 4x3 components keep the hash short while still reading as the icon's
	// dominant colors.
	hash, err := blurhash.Encode(4, 3, dst)
	if err != nil {
		return nil, "", fmt.Errorf("encode blurhash: %w", err)
	}

	return buf.Bytes(), hash, nil
}
