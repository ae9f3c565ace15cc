// ABOUTME: SQLite archive of reconciled conversation messages using modernc.org/sqlite
// ABOUTME: Append-only; a failed archive write never fails the send that produced it

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samhq/sam-client/internal/conversation"
)

// Archive persists reconciled messages across runs. Loading placeholders
// never reach it; only terminal messages are written.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a message archive at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func New(path string) (*Archive, error) {
	logger := slog.Default().With("component", "archive")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	a := &Archive{db: db, logger: logger}

	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("message archive initialized", "path", path)
	return a, nil
}

func (a *Archive) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			document_refs TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_created
			ON messages(created_at);
	`
	_, err := a.db.Exec(schema)
	return err
}

// SaveMessage appends one message to the archive.
// Saving a message with an already-archived id is a no-op.
func (a *Archive) SaveMessage(ctx context.Context, msg conversation.Message) error {
	var refs *string
	if len(msg.DocumentReferences) > 0 {
		ids := make([]string, len(msg.DocumentReferences))
		for i, d := range msg.DocumentReferences {
			ids[i] = d.ID
		}
		joined := strings.Join(ids, ",")
		refs = &joined
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender, content, document_refs, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, msg.ID, string(msg.Sender), msg.Content, refs, msg.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("archiving message %q: %w", msg.ID, err)
	}
	return nil
}

// Recent returns up to limit archived messages in chronological order
func (a *Archive) Recent(ctx context.Context, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, sender, content, created_at FROM (
			SELECT id, sender, content, created_at
			FROM messages
			ORDER BY created_at DESC
			LIMIT ?
		) ORDER BY created_at ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		var m conversation.Message
		var sender, createdAt string
		if err := rows.Scan(&m.ID, &sender, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning archived message: %w", err)
		}
		m.Sender = conversation.Sender(sender)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			m.Timestamp = t
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	return msgs, nil
}

// Close closes the database connection
func (a *Archive) Close() error {
	return a.db.Close()
}
