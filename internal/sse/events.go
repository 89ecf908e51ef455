// Package sse implements Server-Sent Events for pushing tag and bookmark
// changes to connected extension popups and new-tab pages.
package sse

import (
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventTagCreated represents a tag creation event.
	EventTagCreated EventType = "tag.created"
	// EventTagUpdated represents a tag update event.
	EventTagUpdated EventType = "tag.updated"
	// EventTagDeleted represents a tag deletion event.
	EventTagDeleted EventType = "tag.deleted"

	// EventBookmarkCreated represents a bookmark creation event.
	EventBookmarkCreated EventType = "bookmark.created"
	// EventBookmarkUpdated represents a bookmark update event.
	EventBookmarkUpdated EventType = "bookmark.updated"
	// EventBookmarkDeleted represents a bookmark deletion event.
	EventBookmarkDeleted EventType = "bookmark.deleted"
	// EventBookmarkClicked represents a click-count change.
	EventBookmarkClicked EventType = "bookmark.clicked"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID filters delivery to that user's connections.
	// Empty string means broadcast to all (heartbeat only).
	UserID string `json:"-"`
}

// TagEventData is the data payload for tag events.
type TagEventData struct {
	Tag *domain.Tag `json:"tag"`
}

// TagDeletedEventData is the data payload for tag delete events.
type TagDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	TagID     string    `json:"tag_id"`
}

// BookmarkEventData is the data payload for bookmark events.
type BookmarkEventData struct {
	Bookmark *domain.Bookmark `json:"bookmark"`
}

// BookmarkDeletedEventData is the data payload for bookmark delete events.
type BookmarkDeletedEventData struct {
	DeletedAt  time.Time `json:"deleted_at"`
	BookmarkID string    `json:"bookmark_id"`
}

// BookmarkClickedEventData is the data payload for click events.
type BookmarkClickedEventData struct {
	BookmarkID string `json:"bookmark_id"`
	ClickCount int64  `json:"click_count"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

// NewTagEvent creates a tag lifecycle event for the given user.
func NewTagEvent(eventType EventType, userID string, tag *domain.Tag) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      TagEventData{Tag: tag},
	}
}

// NewTagDeletedEvent creates a tag deletion event for the given user.
func NewTagDeletedEvent(userID, tagID string) Event {
	now := time.Now()
	return Event{
		Type:      EventTagDeleted,
		Timestamp: now,
		UserID:    userID,
		Data:      TagDeletedEventData{DeletedAt: now, TagID: tagID},
	}
}

// NewBookmarkEvent creates a bookmark lifecycle event for the given user.
func NewBookmarkEvent(eventType EventType, userID string, bookmark *domain.Bookmark) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      BookmarkEventData{Bookmark: bookmark},
	}
}

// NewBookmarkDeletedEvent creates a bookmark deletion event for the given user.
func NewBookmarkDeletedEvent(userID, bookmarkID string) Event {
	now := time.Now()
	return Event{
		Type:      EventBookmarkDeleted,
		Timestamp: now,
		UserID:    userID,
		Data:      BookmarkDeletedEventData{DeletedAt: now, BookmarkID: bookmarkID},
	}
}

// NewBookmarkClickedEvent creates a click-count event for the given user.
func NewBookmarkClickedEvent(userID, bookmarkID string, clickCount int64) Event {
	return Event{
		Type:      EventBookmarkClicked,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      BookmarkClickedEventData{BookmarkID: bookmarkID, ClickCount: clickCount},
	}
}
