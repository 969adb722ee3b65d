package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dividendtoken/engine/actors"
	"dividendtoken/engine/library"
	"dividendtoken/messaging/eventconductor"
	"dividendtoken/state/claims"
	"dividendtoken/state/replay"
	"dividendtoken/state/token"
)

func tempConfig(t *testing.T) {
	t.Helper()
	conf := viper.New()
	conf.Set("rootDir", t.TempDir()+"/")
	actors.InitConfig(conf)
	actors.SetConfig(conf)
}

func TestRestartDoesNotReapplyEvents(t *testing.T) {
	tempConfig(t)
	authority, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	cfg := token.Config{Controller: strings.Repeat("c", 64), Authority: authority.PubKey()}

	sk := nostr.GeneratePrivateKey()
	account, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	var id library.Identifier
	id[31] = 9
	e, err := claims.Endorse(authority, id, account)
	require.NoError(t, err)
	content, err := json.Marshal(eventconductor.Kind641000{
		Identifier: id,
		V:          e.V,
		R:          hex.EncodeToString(e.R[:]),
		S:          hex.EncodeToString(e.S[:]),
	})
	require.NoError(t, err)
	claim := nostr.Event{
		PubKey:    account,
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      eventconductor.KindClaim,
		Tags:      nostr.Tags{nostr.Tag{"r", replay.Genesis}},
		Content:   string(content),
	}
	require.NoError(t, claim.Sign(sk))

	tk, err := token.New(cfg)
	require.NoError(t, err)
	chain := replay.New()
	conductor := eventconductor.New(tk, chain)
	conductor.OnReceipts = func(nostr.Event, []token.Receipt) {
		require.NoError(t, persist(tk, chain))
	}
	_, err = conductor.HandleEvent(claim)
	require.NoError(t, err)

	// a fresh process without a clean shutdown
	restarted, err := token.New(cfg)
	require.NoError(t, err)
	restartedChain := replay.New()
	require.NoError(t, restore(restarted, restartedChain))
	assert.Equal(t, tk.TotalSupply().String(), restarted.TotalSupply().String())
	assert.Equal(t, claim.ID, restartedChain.CurrentHash(account))

	_, err = eventconductor.New(restarted, restartedChain).HandleEvent(claim)
	assert.True(t, errors.Is(err, replay.ErrReplay))
	assert.Equal(t, token.Unit.String(), restarted.TotalSupply().String())
}

func TestRestoreWithoutSavedState(t *testing.T) {
	tempConfig(t)
	tk, err := token.New(token.Config{Controller: strings.Repeat("c", 64)})
	require.NoError(t, err)
	require.NoError(t, restore(tk, replay.New()))
	assert.Equal(t, "0", tk.TotalSupply().String())
}
