// ABOUTME: Engine orchestrates sending messages - optimistic appends, the assistant
// ABOUTME: call, and reconciliation of responses, failures, and document references

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samhq/sam-client/internal/assistant"
)

// Terminal texts reconciled into the stream when the endpoint returns an
// empty payload or the call fails. Send failures never cross to the caller
// as errors; they degrade to these visible messages.
const (
	FallbackResponse = "No response from bot"
	ErrorResponse    = "Oops! Something went wrong."
)

// ErrBusy is returned when a send is attempted while one is in flight.
// Sends are serialized per conversation; there is no queueing.
var ErrBusy = errors.New("a message is already being sent")

// ErrUnknownDocument is returned when a document id is not in the registry
var ErrUnknownDocument = errors.New("unknown document")

// TokenSource defines what the engine needs from the session layer.
// Token is synchronous-or-failing: it never triggers a refresh.
type TokenSource interface {
	Token() (string, error)
	Subject() string
}

// AssistantClient defines what the engine needs from the assistant endpoint
type AssistantClient interface {
	Send(ctx context.Context, idToken string, req *assistant.Request) (*assistant.Response, error)
}

// Archiver receives reconciled messages for durable archiving.
// Archive failures are logged, never surfaced.
type Archiver interface {
	SaveMessage(ctx context.Context, msg Message) error
}

// Event notifies the presentation layer what changed
type Event int

// Engine events
const (
	EventMessagesChanged Event = iota
	EventDocumentsChanged
	EventPanelRevealed
)

// Engine drives the conversation. It owns no state itself beyond the busy
// flag; messages and documents live in the Store, the session lives in the
// TokenSource.
type Engine struct {
	store     *Store
	session   TokenSource
	assistant AssistantClient
	archive   Archiver
	logger    *slog.Logger

	mu          sync.Mutex
	busy        bool
	subscribers []func(Event)
}

// NewEngine creates a conversation engine
func NewEngine(store *Store, session TokenSource, client AssistantClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		session:   session,
		assistant: client,
		logger:    logger.With("component", "conversation"),
	}
}

// SetArchiver configures optional durable archiving of reconciled messages
func (e *Engine) SetArchiver(a Archiver) {
	e.archive = a
}

// Subscribe registers fn to be called on every engine event.
// Callbacks run synchronously on the mutating goroutine.
func (e *Engine) Subscribe(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// Busy reports whether a send is in flight
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Send sends one user message and reconciles the outcome into the store.
//
// Blank content is a no-op, not an error. A missing session fails
// synchronously with no state mutation. Otherwise the observable order is
// fixed: user message appended, loading placeholder appended, one request
// issued, placeholder replaced by exactly one terminal bot message, busy
// cleared. Transport and decode failures reconcile into ErrorResponse and
// return nil.
func (e *Engine) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	// Session check comes before any optimistic append
	token, err := e.session.Token()
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	e.busy = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.busy = false
		e.mu.Unlock()
	}()

	// History is snapshotted before the optimistic appends: the request
	// carries prior turns, not the message being sent.
	history := toTurns(e.store.Messages())

	userMsg := Message{
		ID:        uuid.New().String(),
		Content:   content,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	}
	e.store.AppendMessage(userMsg)

	placeholder := Message{
		ID:        "loading-" + uuid.New().String(),
		Sender:    SenderBot,
		Timestamp: time.Now(),
		IsLoading: true,
	}
	e.store.AppendMessage(placeholder)
	e.notify(EventMessagesChanged)

	resp, sendErr := e.assistant.Send(ctx, token, &assistant.Request{
		UserID:  e.session.Subject(),
		Request: content,
		History: history,
	})

	botMsg := Message{
		ID:        "bot-" + uuid.New().String(),
		Sender:    SenderBot,
		Timestamp: time.Now(),
	}
	if sendErr != nil {
		e.logger.Warn("assistant call failed", "error", sendErr)
		botMsg.Content = ErrorResponse
	} else if resp.Response == "" {
		botMsg.Content = FallbackResponse
	} else {
		botMsg.Content = resp.Response
	}

	e.store.ReplaceLoading(placeholder.ID, botMsg)
	e.notify(EventMessagesChanged)

	// Link documents the response cites, as a follow-up to the append
	if sendErr == nil && len(resp.DocumentReferences) > 0 {
		linked := false
		for _, id := range resp.DocumentReferences {
			if e.store.MarkDocumentReferenced(id) {
				linked = true
			} else {
				e.logger.Debug("response cited unknown document", "document_id", id)
			}
		}
		if linked {
			e.notify(EventDocumentsChanged)
			e.notify(EventPanelRevealed)
		}
	}

	e.archiveMessages(ctx, userMsg, botMsg)
	return nil
}

// AttachFile registers a local file as a document and records a system
// message about it. No network call is made. Attaching the same file twice
// produces two distinct documents.
func (e *Engine) AttachFile(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("attaching file: %w", err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("attaching file: %q is a directory", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, fmt.Errorf("attaching file: %w", err)
	}

	doc := Document{
		ID:   "doc-" + uuid.New().String(),
		Name: filepath.Base(path),
		URL:  "file://" + abs,
	}
	if err := e.store.AddDocument(doc); err != nil {
		return Document{}, fmt.Errorf("attaching file: %w", err)
	}

	sysMsg := Message{
		ID:                 "system-" + uuid.New().String(),
		Content:            fmt.Sprintf("You've uploaded %q. I'll analyze this document for you.", doc.Name),
		Sender:             SenderBot,
		Timestamp:          time.Now(),
		DocumentReferences: []Document{doc},
	}
	e.store.AppendMessage(sysMsg)

	e.store.MarkDocumentReferenced(doc.ID)
	doc.IsReferenced = true

	e.notify(EventMessagesChanged)
	e.notify(EventDocumentsChanged)
	e.notify(EventPanelRevealed)

	e.archiveMessages(context.Background(), sysMsg)

	e.logger.Info("file attached", "document_id", doc.ID, "name", doc.Name)
	return doc, nil
}

// SelectDocument marks the document referenced and reveals the document
// panel. Message state is untouched. Selecting twice is idempotent.
func (e *Engine) SelectDocument(id string) error {
	if !e.store.MarkDocumentReferenced(id) {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	e.notify(EventDocumentsChanged)
	e.notify(EventPanelRevealed)
	return nil
}

// archiveMessages best-effort persists reconciled messages
func (e *Engine) archiveMessages(ctx context.Context, msgs ...Message) {
	if e.archive == nil {
		return
	}
	for _, msg := range msgs {
		if err := e.archive.SaveMessage(ctx, msg); err != nil {
			e.logger.Warn("failed to archive message", "message_id", msg.ID, "error", err)
		}
	}
}

// toTurns converts stored messages to request history, skipping any
// loading placeholders
func toTurns(msgs []Message) []assistant.Turn {
	turns := make([]assistant.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.IsLoading {
			continue
		}
		turns = append(turns, assistant.Turn{
			Sender:    string(m.Sender),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return turns
}

func (e *Engine) notify(ev Event) {
	e.mu.Lock()
	subs := make([]func(Event), len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
