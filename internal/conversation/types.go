// ABOUTME: Core conversation types - messages, senders, and documents
// ABOUTME: The Store exclusively owns values of these types; cross-references are by id

package conversation

import "time"

// Sender identifies who authored a message
type Sender string

// Message senders
const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry in the ordered conversation. The sequence is
// append-only except for the removal of exactly the loading placeholder
// once its response or error arrives.
type Message struct {
	ID                 string
	Content            string
	Sender             Sender
	Timestamp          time.Time
	DocumentReferences []Document
	IsLoading          bool
}

// Document is an uploaded or referenced document. IsReferenced is
// monotonic: once true it never goes back to false.
type Document struct {
	ID           string
	Name         string
	URL          string
	IsReferenced bool
}

// Greeting is the seed message shown before any user input
func Greeting() Message {
	return Message{
		ID:        "greeting",
		Content:   "Hello! I'm Sam, your AI assistant. How can I help you today?",
		Sender:    SenderBot,
		Timestamp: time.Now(),
	}
}
