package actors

import (
	"os"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempConfig(t *testing.T) *viper.Viper {
	t.Helper()
	conf := viper.New()
	conf.Set("rootDir", t.TempDir()+"/")
	InitConfig(conf)
	SetConfig(conf)
	return conf
}

func TestInitConfigDefaults(t *testing.T) {
	conf := tempConfig(t)
	assert.Equal(t, "data/", conf.GetString("flatFileDir"))
	assert.Equal(t, "720h0m0s", conf.GetDuration("halvingPeriod").String())
	assert.Equal(t, uint64(255), conf.GetUint64("finalEra"))
	assert.FileExists(t, conf.GetString("rootDir")+"config.yaml")
}

func TestDotEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir() + "/"
	pool := strings.Repeat("e", 64)
	require.NoError(t, os.WriteFile(dir+".env", []byte("DIVIDENDTOKEN_POOLACCOUNT="+pool+"\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("DIVIDENDTOKEN_POOLACCOUNT") })

	conf := viper.New()
	conf.Set("rootDir", dir)
	InitConfig(conf)
	assert.Equal(t, pool, conf.GetString("poolAccount"))
}

func TestWriteAndReadJSON(t *testing.T) {
	tempConfig(t)
	var missing map[string]int
	ok, err := ReadJSON("token", "current", &missing)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, WriteJSON("token", "current", map[string]int{"a": 1}))
	require.NoError(t, WriteJSON("token", "current", map[string]int{"b": 2}))
	var got map[string]int
	ok, err = ReadJSON("token", "current", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"b": 2}, got)

	require.NoError(t, Write("token", "broken", []byte("{")))
	_, err = ReadJSON("token", "broken", &got)
	assert.Error(t, err)
}

func TestWalletFromSeedWords(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)
	again, err := WalletFromSeedWords(w.SeedWords)
	require.NoError(t, err)
	assert.Equal(t, w, again)

	pk, err := nostr.GetPublicKey(w.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, pk, w.Account)

	_, err = WalletFromSeedWords("not a mnemonic")
	assert.Error(t, err)
}

func TestSignedStateEvent(t *testing.T) {
	tempConfig(t)
	e, err := CurrentStateEventBuilder(`{"receipts":[]}`)
	require.NoError(t, err)
	ok, err := e.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, KindCurrentState, e.Kind)
	assert.Equal(t, MyWallet().Account, e.PubKey)
}

func TestShutdownIsIdempotent(t *testing.T) {
	SetTerminateChan(make(chan struct{}))
	GetWaitGroup().Add(1)
	go func() {
		<-GetTerminateChan()
		GetWaitGroup().Done()
	}()
	Shutdown()
	Shutdown()
}
