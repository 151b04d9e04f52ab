// ABOUTME: Tests for the remote-then-local FallbackStore
// ABOUTME: Verifies that memory outages never surface as conversation failures

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore implements Store with scriptable failures
type flakyStore struct {
	failing bool
	turns   map[string][]Turn
}

func newFlakyStore() *flakyStore {
	return &flakyStore{turns: make(map[string][]Turn)}
}

func (f *flakyStore) Append(_ context.Context, userID, role, text string) error {
	if f.failing {
		return errors.New("backend down")
	}
	f.turns[userID] = append([]Turn{{UserID: userID, Role: role, Text: text}}, f.turns[userID]...)
	return nil
}

func (f *flakyStore) Recent(_ context.Context, userID string, limit int) ([]Turn, error) {
	if f.failing {
		return nil, errors.New("backend down")
	}
	turns := f.turns[userID]
	if len(turns) > limit {
		turns = turns[:limit]
	}
	return turns, nil
}

func (f *flakyStore) HasHistory(_ context.Context, userID string) (bool, error) {
	if f.failing {
		return false, errors.New("backend down")
	}
	return len(f.turns[userID]) > 0, nil
}

func (f *flakyStore) Close() error { return nil }

func TestFallbackStore_RemoteHealthy(t *testing.T) {
	remote := newFlakyStore()
	local := newFlakyStore()
	s := NewFallbackStore(remote, local, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", RoleUser, "hello"))

	// Write landed remotely, not locally
	assert.Len(t, remote.turns["alice"], 1)
	assert.Empty(t, local.turns["alice"])

	turns, err := s.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Text)
}

func TestFallbackStore_RemoteDownUsesLocal(t *testing.T) {
	remote := newFlakyStore()
	remote.failing = true
	local := newFlakyStore()
	s := NewFallbackStore(remote, local, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", RoleUser, "hello"))
	assert.Len(t, local.turns["alice"], 1)

	turns, err := s.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Text)
}

func TestFallbackStore_BothDownStillSucceedsReads(t *testing.T) {
	remote := newFlakyStore()
	remote.failing = true
	local := newFlakyStore()
	local.failing = true
	s := NewFallbackStore(remote, local, nil)
	ctx := context.Background()

	// Reads degrade to empty context, never an error
	turns, err := s.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)

	has, err := s.HasHistory(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, has)

	// Writes do report total failure so callers can log it
	err = s.Append(ctx, "alice", RoleUser, "hello")
	require.Error(t, err)
}

func TestFallbackStore_NoRemoteConfigured(t *testing.T) {
	local := newFlakyStore()
	s := NewFallbackStore(nil, local, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", RoleUser, "hello"))
	assert.Len(t, local.turns["alice"], 1)

	turns, err := s.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestFallbackStore_HasHistoryChecksLocalWhenRemoteEmpty(t *testing.T) {
	remote := newFlakyStore()
	local := newFlakyStore()
	// Turn written during an earlier remote outage
	local.turns["alice"] = []Turn{{UserID: "alice", Role: RoleUser, Text: "stashed"}}
	s := NewFallbackStore(remote, local, nil)

	has, err := s.HasHistory(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFallbackStore_LocalRoundTrip(t *testing.T) {
	// Append then an immediate Recent(1) through the local fallback
	// returns the appended turn.
	dbStore := createTestStore(t)
	s := NewFallbackStore(nil, dbStore, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "u", RoleUser, "hello"))

	turns, err := s.Recent(ctx, "u", 1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Text)
}
