// ABOUTME: Guard against accidental duplicate message submissions
// ABOUTME: Rejects identical content resubmitted within a short window

package dedupe

import (
	"sync"
	"time"
)

// Guard tracks recently submitted message content so a double-Enter or a
// repeated paste does not send the same message twice. Entries age out
// after the window; an expired entry may be submitted again.
type Guard struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	window  time.Duration
	maxSize int
}

// NewGuard creates a submission guard with the given window and capacity
func NewGuard(window time.Duration, maxSize int) *Guard {
	return &Guard{
		seen:    make(map[string]time.Time),
		window:  window,
		maxSize: maxSize,
	}
}

// Duplicate atomically checks and records one submission. It returns true
// if the same content was already submitted inside the window; false marks
// the content as submitted now.
func (g *Guard) Duplicate(content string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if at, ok := g.seen[content]; ok && now.Sub(at) < g.window {
		return true
	}

	g.sweepLocked(now)
	g.seen[content] = now
	return false
}

// sweepLocked drops expired entries, and oldest entries when over capacity.
// Must be called with mu held.
func (g *Guard) sweepLocked(now time.Time) {
	for content, at := range g.seen {
		if now.Sub(at) >= g.window {
			delete(g.seen, content)
		}
	}

	// Capacity is a safety valve; dropping the oldest is good enough
	for len(g.seen) >= g.maxSize {
		var oldest string
		var oldestAt time.Time
		first := true
		for content, at := range g.seen {
			if first || at.Before(oldestAt) {
				oldest, oldestAt, first = content, at, false
			}
		}
		delete(g.seen, oldest)
	}
}
