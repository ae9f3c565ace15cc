// ABOUTME: Tests for the SQLite credential store
// ABOUTME: Verifies write-through persistence, overwrite, delete, and reopen behavior

package tokenstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tokens.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.Get(context.Background(), KeyIDToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SetGet(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyIDToken, "tok-1"))

	got, err := s.Get(ctx, KeyIDToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyRefreshToken, "old"))
	require.NoError(t, s.Set(ctx, KeyRefreshToken, "new"))

	got, err := s.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestSQLiteStore_Delete(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyIDToken, "tok-1"))
	require.NoError(t, s.Delete(ctx, KeyIDToken))

	_, err := s.Get(ctx, KeyIDToken)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error
	assert.NoError(t, s.Delete(ctx, KeyIDToken))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tokens.db")

	s1, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, KeyIDToken, "persisted"))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, KeyIDToken)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestSQLiteStore_CreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "tokens.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), KeyIDToken, "tok"))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyIDToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyIDToken, "tok"))
	got, err := s.Get(ctx, KeyIDToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Delete(ctx, KeyIDToken))
	_, err = s.Get(ctx, KeyIDToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
