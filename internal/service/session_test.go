package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pagetagz/pagetagz-server/internal/errors"
)

func TestSessionService_CreateAndAuthenticate(t *testing.T) {
	st := newTestStore(t)
	user := createTestUser(t, st)
	svc := NewSessionService(st, testLogger())
	ctx := context.Background()

	resp, err := svc.CreateSession(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.UserID)

	got, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestSessionService_AuthenticateBadToken(t *testing.T) {
	st := newTestStore(t)
	createTestUser(t, st)
	svc := NewSessionService(st, testLogger())

	for _, token := range []string{"", "never-issued"} {
		_, err := svc.Authenticate(context.Background(), token)
		require.Error(t, err)
		assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))
	}
}

func TestSessionService_Revoke(t *testing.T) {
	st := newTestStore(t)
	user := createTestUser(t, st)
	svc := NewSessionService(st, testLogger())
	ctx := context.Background()

	resp, err := svc.CreateSession(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(ctx, resp.Token))

	_, err = svc.Authenticate(ctx, resp.Token)
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))

	// Revoking twice is fine.
	require.NoError(t, svc.RevokeSession(ctx, resp.Token))
}
