// ABOUTME: Tests for the local SQLite memory store
// ABOUTME: Covers append/recent round-trips, ordering, and user isolation

package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_AppendRecentRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", RoleUser, "hello"))

	turns, err := s.Recent(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "alice", turns[0].UserID)
	assert.NotEmpty(t, turns[0].ID)
}

func TestSQLiteStore_RecentMostRecentFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", RoleUser, "first"))
	require.NoError(t, s.Append(ctx, "alice", RoleAssistant, "second"))
	require.NoError(t, s.Append(ctx, "alice", RoleUser, "third"))

	turns, err := s.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "third", turns[0].Text)
	assert.Equal(t, "second", turns[1].Text)
	assert.Equal(t, "first", turns[2].Text)
}

func TestSQLiteStore_RecentRespectsLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, "alice", RoleUser, "msg"))
	}

	turns, err := s.Recent(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestSQLiteStore_UserIsolation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", RoleUser, "alice secret"))
	require.NoError(t, s.Append(ctx, "bob", RoleUser, "bob secret"))
	require.NoError(t, s.Append(ctx, "alice", RoleAssistant, "reply to alice"))

	turns, err := s.Recent(ctx, "alice", 100)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	for _, turn := range turns {
		assert.Equal(t, "alice", turn.UserID)
		assert.NotContains(t, turn.Text, "bob")
	}

	turns, err = s.Recent(ctx, "bob", 100)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "bob secret", turns[0].Text)
}

func TestSQLiteStore_RecentUnknownUserIsEmpty(t *testing.T) {
	s := createTestStore(t)

	turns, err := s.Recent(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSQLiteStore_HasHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	has, err := s.HasHistory(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.Append(ctx, "alice", RoleUser, "hello"))

	has, err = s.HasHistory(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, has)

	// Other users stay unaffected
	has, err = s.HasHistory(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSQLiteStore_RejectsInvalidRole(t *testing.T) {
	s := createTestStore(t)

	err := s.Append(context.Background(), "alice", "narrator", "text")
	require.Error(t, err)
}
