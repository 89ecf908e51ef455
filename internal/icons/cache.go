// Package icons maintains the favicon cache. Icons are fetched once per
// host, downscaled to a uniform size, given a BlurHash placeholder, and
// stored in Badger with a TTL so stale icons refresh on their own.
package icons

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotCached is returned when a host has no cached icon.
var ErrNotCached = errors.New("icon not cached")

// Icon is a cached, normalized favicon.
type Icon struct {
	Host      string    `json:"host"`
	PNG       []byte    `json:"png"`
	BlurHash  string    `json:"blur_hash"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// cacheTTL is how long a cached icon stays valid.
const cacheTTL = 7 * 24 * time.Hour

// Cache is a Badger-backed favicon cache keyed by host.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewCache opens the icon cache at path.
func NewCache(path string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open icon cache: %w", err)
	}

	if logger != nil {
		logger.Info("icon cache opened", "path", path)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(host string) []byte {
	return []byte("icon:" + host)
}

// Get returns the cached icon for host, or ErrNotCached.
func (c *Cache) Get(host string) (*Icon, error) {
	var icon Icon

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(host))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &icon)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("read icon %s: %w", host, err)
	}

	return &icon, nil
}

// Put stores an icon for host. The entry expires after the cache TTL.
func (c *Cache) Put(icon *Icon) error {
	data, err := json.Marshal(icon)
	if err != nil {
		return fmt.Errorf("marshal icon: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(icon.Host), data).WithTTL(cacheTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write icon %s: %w", icon.Host, err)
	}

	return nil
}

// Delete removes the cached icon for host.
func (c *Cache) Delete(host string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(host))
	})
}
