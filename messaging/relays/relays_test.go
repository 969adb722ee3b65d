package relays

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
)

func TestCacheDeduplicates(t *testing.T) {
	c := newCache()
	assert.True(t, c.push(nostr.Event{ID: "a"}))
	assert.False(t, c.push(nostr.Event{ID: "a"}))
	assert.True(t, c.push(nostr.Event{ID: "b"}))
}

func TestFilters(t *testing.T) {
	f := Filters([]int{641000, 641002})
	assert.Len(t, f, 1)
	assert.True(t, f[0].Matches(&nostr.Event{Kind: 641002}))
	assert.False(t, f[0].Matches(&nostr.Event{Kind: 1}))
}

func TestSleeperIsOpen(t *testing.T) {
	select {
	case <-Sleeper():
		t.Fatal("sleeper fired without sleep")
	default:
	}
}
