package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pagetagz/pagetagz-server/internal/logger"
	"github.com/pagetagz/pagetagz-server/internal/service"
)

// ProvideSessionService provides session creation and authentication.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewSessionService(storeHandle.Store, log.Logger), nil
}

// ProvideTagService provides tag CRUD.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewTagService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideBookmarkService provides bookmark CRUD, clicks, search and icons.
func ProvideBookmarkService(i do.Injector) (*service.BookmarkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	iconHandle := do.MustInvoke[*IconServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewBookmarkService(storeHandle.Store, sseHandle.Manager, indexHandle.Index, iconHandle.Service, log.Logger), nil
}

// ProvidePageService provides rate-limited page-metadata capture.
func ProvidePageService(i do.Injector) (*service.PageService, error) {
	fetcherHandle := do.MustInvoke[*PageFetcherHandle](i)
	limiterHandle := do.MustInvoke[*CaptureLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewPageService(fetcherHandle.Fetcher, limiterHandle.KeyedRateLimiter, log.Logger), nil
}

// SessionCleanupJob periodically deletes expired sessions.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the hourly expired-session sweep.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)

	ctx, cancel := context.WithCancel(context.Background())
	go sessions.StartCleanup(ctx)

	return &SessionCleanupJob{cancel: cancel}, nil
}
