// Package replay keeps, per account, the ID of the last event that account
// got accepted. Every event must name that ID in its "r" tag, so a signed
// event can be applied at most once and only in the order it was written.
package replay

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"dividendtoken/engine/library"
)

// Genesis is the hash an account's first event must reference.
const Genesis = "24c30ad7f036ed49379b5d1209836d1ff6795adb34da2d3e4cabc47dc9dfef21"

var ErrReplay = errors.New("event does not extend the account's replay chain")

type Mapped map[library.Account]string

type Chain struct {
	mutex *deadlock.Mutex
	data  Mapped
}

func New() *Chain {
	return &Chain{mutex: &deadlock.Mutex{}, data: make(Mapped)}
}

func (c *Chain) currentHash(account library.Account) string {
	if hash, ok := c.data[account]; ok {
		return hash
	}
	return Genesis
}

func (c *Chain) CurrentHash(account library.Account) string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.currentHash(account)
}

// Check returns ErrReplay unless the event's "r" tag names its author's current hash.
func (c *Chain) Check(event nostr.Event) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	claimed, ok := library.GetFirstTag(event, "r")
	if !ok {
		return fmt.Errorf("event %s has no r tag: %w", event.ID, ErrReplay)
	}
	if current := c.currentHash(event.PubKey); claimed != current {
		return fmt.Errorf("event %s references %s, current is %s: %w", event.ID, claimed, current, ErrReplay)
	}
	return nil
}

// Advance records event as its author's latest accepted event. Call it only
// after the operation the event carries has succeeded.
func (c *Chain) Advance(event nostr.Event) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data[event.PubKey] = event.ID
}

func (c *Chain) Map() Mapped {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	m := make(Mapped, len(c.data))
	for account, id := range c.data {
		m[account] = id
	}
	return m
}

func (c *Chain) Restore(m Mapped) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(Mapped, len(m))
	for account, id := range m {
		c.data[account] = id
	}
}

// StateHash commits to every account's current hash.
func (c *Chain) StateHash() (library.Sha256, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	accounts := maps.Keys(c.data)
	slices.Sort(accounts)
	b := bytes.Buffer{}
	for _, account := range accounts {
		decoded, err := hex.DecodeString(c.data[account])
		if err != nil {
			return "", fmt.Errorf("replay hash for %s: %w", account, err)
		}
		b.Write(decoded)
	}
	return library.Sha256Sum(b.Bytes()), nil
}
