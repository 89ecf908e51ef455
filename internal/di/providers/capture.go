package providers

import (
	"github.com/samber/do/v2"

	"github.com/pagetagz/pagetagz-server/internal/config"
	"github.com/pagetagz/pagetagz-server/internal/icons"
	"github.com/pagetagz/pagetagz-server/internal/logger"
	"github.com/pagetagz/pagetagz-server/internal/pagemeta"
	"github.com/pagetagz/pagetagz-server/internal/ratelimit"
)

// IconServiceHandle wraps the favicon service and its cache for shutdown.
type IconServiceHandle struct {
	*icons.Service
	cache *icons.Cache
}

// Shutdown implements do.Shutdownable.
func (h *IconServiceHandle) Shutdown() error {
	h.Service.Close()
	return h.cache.Close()
}

// ProvideIconService provides the favicon fetch-and-cache pipeline.
func ProvideIconService(i do.Injector) (*IconServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache, err := icons.NewCache(cfg.Icons.CachePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Icon cache opened", "path", cfg.Icons.CachePath)

	return &IconServiceHandle{
		Service: icons.NewService(cache, log.Logger),
		cache:   cache,
	}, nil
}

// PageFetcherHandle wraps the page-metadata fetcher for shutdown.
type PageFetcherHandle struct {
	*pagemeta.Fetcher
}

// Shutdown implements do.Shutdownable.
func (h *PageFetcherHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvidePageFetcher provides the page-metadata fetcher.
func ProvidePageFetcher(i do.Injector) (*PageFetcherHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &PageFetcherHandle{Fetcher: pagemeta.NewFetcher(log.Logger)}, nil
}

// CaptureLimiterHandle wraps the per-user capture rate limiter.
type CaptureLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *CaptureLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideCaptureLimiter bounds how fast a single user may trigger
// outbound page fetches.
func ProvideCaptureLimiter(i do.Injector) (*CaptureLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &CaptureLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Capture.RPS, cfg.Capture.Burst),
	}, nil
}
