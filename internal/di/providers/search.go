package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pagetagz/pagetagz-server/internal/config"
	"github.com/pagetagz/pagetagz-server/internal/logger"
	"github.com/pagetagz/pagetagz-server/internal/search"
	"github.com/pagetagz/pagetagz-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index, wired into the
// store so mutations keep it current.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Search.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(search.NewStoreIndexer(index))

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the
// database. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	bookmarkService := do.MustInvoke[*service.BookmarkService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	userIDs, err := storeHandle.ListUserIDs(ctx)
	if err != nil || len(userIDs) == 0 {
		return
	}

	log.Info("Search index is empty, triggering initial reindex", "users", len(userIDs))

	go func() {
		if err := bookmarkService.Reindex(context.Background(), userIDs); err != nil {
			log.Error("Initial search reindex failed", "error", err)
		}
	}()
}
