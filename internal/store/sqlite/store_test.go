package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/id"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// makeTestUser creates and persists a user for foreign-key dependent tests.
func makeTestUser(t *testing.T, s *Store) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:          id.MustGenerate(id.PrefixUser),
		Email:       id.MustGenerate("mail") + "@example.com",
		DisplayName: "Test User",
		CreatedAt:   time.Now(),
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{"users", "sessions", "tags", "bookmarks", "bookmark_tags"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_PragmasOnEveryConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// foreign_keys is per-connection state; holding the first connection
	// forces the second query onto a different one. Both must have it.
	conn1, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("conn 1: %v", err)
	}
	defer conn1.Close()
	conn2, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("conn 2: %v", err)
	}
	defer conn2.Close()

	for i, conn := range []*sql.Conn{conn1, conn2} {
		var fk int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("query foreign_keys on conn %d: %v", i+1, err)
		}
		if fk != 1 {
			t.Errorf("conn %d: expected foreign_keys=1, got %d", i+1, fk)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Schema application must be idempotent.
	s, err = Open(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	s.Close()
}
