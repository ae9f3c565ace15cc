// ABOUTME: Tests for the SQLite message archive
// ABOUTME: Verifies ordering, idempotent writes, and persistence across reopen

package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhq/sam-client/internal/conversation"
)

func createTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := New(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchive_SaveAndRecent(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, a.SaveMessage(ctx, conversation.Message{
			ID:        fmt.Sprintf("m%d", i),
			Sender:    conversation.SenderUser,
			Content:   fmt.Sprintf("message %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "message 0", msgs[0].Content)
	assert.Equal(t, "message 2", msgs[2].Content)
}

func TestArchive_RecentHonorsLimit(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		require.NoError(t, a.SaveMessage(ctx, conversation.Message{
			ID:        fmt.Sprintf("m%d", i),
			Sender:    conversation.SenderBot,
			Content:   fmt.Sprintf("message %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := a.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// The most recent two, still in chronological order
	assert.Equal(t, "message 3", msgs[0].Content)
	assert.Equal(t, "message 4", msgs[1].Content)
}

func TestArchive_SaveIsIdempotentPerID(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	msg := conversation.Message{ID: "m1", Sender: conversation.SenderUser, Content: "once", Timestamp: time.Now()}
	require.NoError(t, a.SaveMessage(ctx, msg))
	require.NoError(t, a.SaveMessage(ctx, msg))

	msgs, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestArchive_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	a1, err := New(path)
	require.NoError(t, err)
	require.NoError(t, a1.SaveMessage(ctx, conversation.Message{
		ID: "m1", Sender: conversation.SenderUser, Content: "kept", Timestamp: time.Now(),
	}))
	require.NoError(t, a1.Close())

	a2, err := New(path)
	require.NoError(t, err)
	defer a2.Close()

	msgs, err := a2.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept", msgs[0].Content)
}

func TestArchive_EmptyRecent(t *testing.T) {
	a := createTestArchive(t)
	msgs, err := a.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
