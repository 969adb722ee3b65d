package relays

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
)

// cache remembers which events have already been passed on, since every relay delivers its own copy.
type cache struct {
	mu   *deadlock.Mutex
	seen map[string]struct{}
}

func newCache() *cache {
	return &cache{mu: &deadlock.Mutex{}, seen: make(map[string]struct{})}
}

// push reports whether e is new.
func (c *cache) push(e nostr.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[e.ID]; ok {
		return false
	}
	c.seen[e.ID] = struct{}{}
	return true
}
