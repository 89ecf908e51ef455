package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/store"
	"github.com/pagetagz/pagetagz-server/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createTestUser(t *testing.T, st store.Store) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:          "user-test",
		Email:       "test@example.com",
		DisplayName: "Test User",
		CreatedAt:   time.Now(),
	}
	require.NoError(t, st.CreateUser(context.Background(), user))
	return user
}

// captureEmitter records emitted events for assertions.
type captureEmitter struct {
	events []any
}

func (c *captureEmitter) Emit(event any) {
	c.events = append(c.events, event)
}
