// ABOUTME: In-memory state container for the message sequence and document registry
// ABOUTME: Validates id uniqueness only; the Engine is responsible for semantics

package conversation

import (
	"fmt"
	"sync"
)

// Store owns the ordered message list and the document registry. It is a
// plain state container: callers hold no references into it, every read
// returns a copy.
type Store struct {
	mu        sync.RWMutex
	messages  []Message
	documents []Document
	byID      map[string]int // document id -> index
}

// NewStore creates an empty conversation store
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// AppendMessage adds a message to the end of the sequence
func (s *Store) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the ordered message sequence
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ReplaceLoading removes the loading placeholder with the given id and
// appends the terminal message in one step. If no such placeholder exists
// the terminal message is still appended, so a response is never lost.
func (s *Store) ReplaceLoading(placeholderID string, terminal Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.ID == placeholderID && m.IsLoading {
			continue
		}
		kept = append(kept, m)
	}
	s.messages = append(kept, terminal)
}

// LoadingCount returns the number of loading placeholders currently present
func (s *Store) LoadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.IsLoading {
			n++
		}
	}
	return n
}

// AddDocument registers a new document. Ids must be unique.
func (s *Store) AddDocument(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[doc.ID]; exists {
		return fmt.Errorf("document %q already exists", doc.ID)
	}
	s.byID[doc.ID] = len(s.documents)
	s.documents = append(s.documents, doc)
	return nil
}

// Documents returns a copy of the document registry
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, len(s.documents))
	copy(out, s.documents)
	return out
}

// Document returns the document with the given id
func (s *Store) Document(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Document{}, false
	}
	return s.documents[i], true
}

// MarkDocumentReferenced flips IsReferenced to true for the given id.
// The flag is monotonic; marking an already-referenced document is a no-op.
// Returns false if the id is unknown.
func (s *Store) MarkDocumentReferenced(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.documents[i].IsReferenced = true
	return true
}
