// ABOUTME: Tests for the duplicate submission guard
// ABOUTME: Covers window expiry and capacity eviction

package dedupe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard_RejectsResubmissionInWindow(t *testing.T) {
	g := NewGuard(time.Minute, 100)

	assert.False(t, g.Duplicate("hello"))
	assert.True(t, g.Duplicate("hello"))
	assert.False(t, g.Duplicate("different"))
}

func TestGuard_AllowsAfterWindow(t *testing.T) {
	g := NewGuard(50*time.Millisecond, 100)

	assert.False(t, g.Duplicate("hello"))
	time.Sleep(80 * time.Millisecond)
	assert.False(t, g.Duplicate("hello"))
}

func TestGuard_CapacityEviction(t *testing.T) {
	g := NewGuard(time.Hour, 3)

	for i := 0; i < 10; i++ {
		g.Duplicate(fmt.Sprintf("message %d", i))
	}

	g.mu.Lock()
	size := len(g.seen)
	g.mu.Unlock()
	assert.LessOrEqual(t, size, 3)
}
