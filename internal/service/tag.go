package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	domainerrors "github.com/pagetagz/pagetagz-server/internal/errors"
	"github.com/pagetagz/pagetagz-server/internal/id"
	"github.com/pagetagz/pagetagz-server/internal/sse"
	"github.com/pagetagz/pagetagz-server/internal/store"
)

// TagService orchestrates tag CRUD. Tags are user-owned; every operation
// is scoped to the calling user.
type TagService struct {
	store   store.Store
	emitter store.EventEmitter
	logger  *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(st store.Store, emitter store.EventEmitter, logger *slog.Logger) *TagService {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	return &TagService{
		store:   st,
		emitter: emitter,
		logger:  logger,
	}
}

// ListTags returns all of the user's tags, newest first.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, domainerrors.Database("list tags", err)
	}
	return tags, nil
}

// GetTag returns one tag by ID.
func (s *TagService) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, userID, tagID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.TagNotFound(fmt.Sprintf("tag %s not found", tagID))
	}
	if err != nil {
		return nil, domainerrors.Database("get tag", err)
	}
	return tag, nil
}

// CreateTag creates a tag. Names are unique per user after trimming.
func (s *TagService) CreateTag(ctx context.Context, userID, name, description string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("tag name is required")
	}

	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, fmt.Errorf("generate tag id: %w", err)
	}

	now := time.Now()
	tag := &domain.Tag{
		ID:          tagID,
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.DuplicateTag(fmt.Sprintf("tag %q already exists", name))
		}
		return nil, domainerrors.Database("create tag", err)
	}

	s.emitter.Emit(sse.NewTagEvent(sse.EventTagCreated, userID, tag))
	s.logger.Info("tag created", "tag_id", tag.ID, "user_id", userID, "name", name)

	return tag, nil
}

// UpdateTag renames a tag or changes its description.
func (s *TagService) UpdateTag(ctx context.Context, userID, tagID, name, description string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("tag name is required")
	}

	tag, err := s.GetTag(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}

	tag.Name = name
	tag.Description = strings.TrimSpace(description)
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.DuplicateTag(fmt.Sprintf("tag %q already exists", name))
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.TagNotFound(fmt.Sprintf("tag %s not found", tagID))
		default:
			return nil, domainerrors.Database("update tag", err)
		}
	}

	s.emitter.Emit(sse.NewTagEvent(sse.EventTagUpdated, userID, tag))
	s.logger.Info("tag updated", "tag_id", tagID, "user_id", userID)

	return tag, nil
}

// DeleteTag removes a tag. Bookmarks that referenced only this tag become
// untagged; the links cascade in the store.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.TagNotFound(fmt.Sprintf("tag %s not found", tagID))
		}
		return domainerrors.Database("delete tag", err)
	}

	s.emitter.Emit(sse.NewTagDeletedEvent(userID, tagID))
	s.logger.Info("tag deleted", "tag_id", tagID, "user_id", userID)

	return nil
}
