package replay

import (
	"errors"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, sk string, previous string) nostr.Event {
	t.Helper()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	e := nostr.Event{
		PubKey:    pk,
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      641004,
		Tags:      nostr.Tags{{"r", previous}},
		Content:   "{}",
	}
	require.NoError(t, e.Sign(sk))
	return e
}

func TestChainAdvancesOnlyInOrder(t *testing.T) {
	c := New()
	sk := nostr.GeneratePrivateKey()

	first := signed(t, sk, Genesis)
	require.NoError(t, c.Check(first))
	c.Advance(first)
	assert.Equal(t, first.ID, c.CurrentHash(first.PubKey))

	assert.True(t, errors.Is(c.Check(first), ErrReplay))

	second := signed(t, sk, first.ID)
	assert.NoError(t, c.Check(second))

	untagged := second
	untagged.Tags = nil
	assert.True(t, errors.Is(c.Check(untagged), ErrReplay))
}

func TestChainIsPerAccount(t *testing.T) {
	c := New()
	a := signed(t, nostr.GeneratePrivateKey(), Genesis)
	b := signed(t, nostr.GeneratePrivateKey(), Genesis)
	c.Advance(a)
	assert.NoError(t, c.Check(b))
	assert.Equal(t, Genesis, c.CurrentHash(b.PubKey))
}

func TestRestoreAndStateHash(t *testing.T) {
	c := New()
	empty, err := c.StateHash()
	require.NoError(t, err)

	e := signed(t, nostr.GeneratePrivateKey(), Genesis)
	c.Advance(e)
	h, err := c.StateHash()
	require.NoError(t, err)
	assert.NotEqual(t, empty, h)

	restored := New()
	restored.Restore(c.Map())
	rh, err := restored.StateHash()
	require.NoError(t, err)
	assert.Equal(t, h, rh)
	assert.Equal(t, e.ID, restored.CurrentHash(e.PubKey))

	restored.Restore(Mapped{e.PubKey: "not hex"})
	_, err = restored.StateHash()
	assert.Error(t, err)
}
