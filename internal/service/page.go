package service

import (
	"context"
	"log/slog"

	domainerrors "github.com/pagetagz/pagetagz-server/internal/errors"
	"github.com/pagetagz/pagetagz-server/internal/pagemeta"
	"github.com/pagetagz/pagetagz-server/internal/ratelimit"
)

// PageService captures page metadata on behalf of the extension, so the
// popup can prefill title and description for the page being saved.
type PageService struct {
	fetcher *pagemeta.Fetcher
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewPageService creates a page capture service. limiter guards per-user
// abuse of the outbound fetcher.
func NewPageService(fetcher *pagemeta.Fetcher, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *PageService {
	return &PageService{
		fetcher: fetcher,
		limiter: limiter,
		logger:  logger,
	}
}

// Capture fetches metadata for pageURL.
func (s *PageService) Capture(ctx context.Context, userID, pageURL string) (*pagemeta.Metadata, error) {
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return nil, domainerrors.RateLimited("too many capture requests")
	}

	meta, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		s.logger.Info("page capture failed", "url", pageURL, "user_id", userID, "error", err)
		return nil, domainerrors.CaptureFailed("could not read page metadata", err)
	}

	return meta, nil
}
