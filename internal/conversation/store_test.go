// ABOUTME: Tests for the conversation state container
// ABOUTME: Covers append ordering, placeholder replacement, and document monotonicity

package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendPreservesOrder(t *testing.T) {
	s := NewStore()
	s.AppendMessage(Message{ID: "1", Content: "a"})
	s.AppendMessage(Message{ID: "2", Content: "b"})
	s.AppendMessage(Message{ID: "3", Content: "c"})

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Equal(t, "2", msgs[1].ID)
	assert.Equal(t, "3", msgs[2].ID)
}

func TestStore_MessagesReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AppendMessage(Message{ID: "1", Content: "a"})

	msgs := s.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "a", s.Messages()[0].Content)
}

func TestStore_ReplaceLoading(t *testing.T) {
	s := NewStore()
	s.AppendMessage(Message{ID: "u1", Sender: SenderUser, Content: "hi"})
	s.AppendMessage(Message{ID: "loading-1", Sender: SenderBot, IsLoading: true})

	s.ReplaceLoading("loading-1", Message{ID: "b1", Sender: SenderBot, Content: "hello"})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "u1", msgs[0].ID)
	assert.Equal(t, "b1", msgs[1].ID)
	assert.Equal(t, 0, s.LoadingCount())
}

func TestStore_ReplaceLoading_UnknownPlaceholderStillAppends(t *testing.T) {
	s := NewStore()
	s.AppendMessage(Message{ID: "u1", Sender: SenderUser, Content: "hi"})

	s.ReplaceLoading("nope", Message{ID: "b1", Sender: SenderBot, Content: "hello"})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "b1", msgs[1].ID)
}

func TestStore_ReplaceLoading_DoesNotTouchNonLoadingWithSameID(t *testing.T) {
	s := NewStore()
	s.AppendMessage(Message{ID: "x", Sender: SenderBot, Content: "real"})

	s.ReplaceLoading("x", Message{ID: "b1", Sender: SenderBot, Content: "terminal"})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "real", msgs[0].Content)
}

func TestStore_AddDocument_RejectsDuplicateID(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddDocument(Document{ID: "d1", Name: "a.pdf"}))
	assert.Error(t, s.AddDocument(Document{ID: "d1", Name: "b.pdf"}))
}

func TestStore_MarkDocumentReferenced_Monotonic(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddDocument(Document{ID: "d1", Name: "a.pdf"}))

	assert.True(t, s.MarkDocumentReferenced("d1"))
	assert.True(t, s.MarkDocumentReferenced("d1"))

	docs := s.Documents()
	require.Len(t, docs, 1)
	assert.True(t, docs[0].IsReferenced)
}

func TestStore_MarkDocumentReferenced_UnknownID(t *testing.T) {
	s := NewStore()
	assert.False(t, s.MarkDocumentReferenced("ghost"))
}

func TestStore_Document(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddDocument(Document{ID: "d1", Name: "a.pdf", URL: "file:///tmp/a.pdf"}))

	doc, ok := s.Document("d1")
	require.True(t, ok)
	assert.Equal(t, "a.pdf", doc.Name)

	_, ok = s.Document("d2")
	assert.False(t, ok)
}

func TestGreeting(t *testing.T) {
	g := Greeting()
	assert.Equal(t, SenderBot, g.Sender)
	assert.NotEmpty(t, g.Content)
	assert.WithinDuration(t, time.Now(), g.Timestamp, time.Minute)
}
