// Package di provides dependency injection configuration for the PageTagz server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/pagetagz/pagetagz-server/internal/config"
	"github.com/pagetagz/pagetagz-server/internal/di/providers"
	"github.com/pagetagz/pagetagz-server/internal/logger"
	"github.com/pagetagz/pagetagz-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Capture layer
	do.Provide(injector, providers.ProvideIconService)
	do.Provide(injector, providers.ProvidePageFetcher)
	do.Provide(injector, providers.ProvideCaptureLimiter)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideBookmarkService)
	do.Provide(injector, providers.ProvidePageService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is up.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.IconServiceHandle](injector)
	_ = do.MustInvoke[*providers.PageFetcherHandle](injector)
	_ = do.MustInvoke[*providers.CaptureLimiterHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.BookmarkService](injector)
	_ = do.MustInvoke[*service.PageService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the search index when it is empty but data exists.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
