package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/viper"

	"dividendtoken/engine/actors"
	"dividendtoken/engine/library"
	"dividendtoken/messaging/api"
	"dividendtoken/messaging/eventconductor"
	"dividendtoken/messaging/relays"
	"dividendtoken/state/replay"
	"dividendtoken/state/token"
)

func main() {
	// Various aspect of this application require global and local settings. To keep things
	// clean and tidy we put these settings in a Viper configuration.
	conf := viper.New()

	// Now we initialise this configuration with basic settings that are required on startup.
	actors.InitConfig(conf)
	// make the config accessible globally
	actors.SetConfig(conf)

	terminateChan := make(chan struct{})
	actors.SetTerminateChan(terminateChan)

	// the engine operator controls the token unless configured otherwise
	if len(conf.GetString("controller")) == 0 {
		conf.Set("controller", actors.MyWallet().Account)
	}
	cfg, err := token.ConfigFromViper(conf)
	if err != nil {
		library.LogCLI(err.Error(), 0)
		os.Exit(1)
	}
	tk, err := token.New(cfg)
	if err != nil {
		library.LogCLI(err.Error(), 0)
		os.Exit(1)
	}
	chain := replay.New()
	if err = restore(tk, chain); err != nil {
		library.LogCLI(err.Error(), 0)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	server := api.New(conf.GetString("metricsAddr"), tk)
	server.Start()

	conductor := eventconductor.New(tk, chain)
	var publisher *relays.Publisher
	if !conf.GetBool("doNotPublish") {
		publisher = relays.StartPublisher(ctx, conf.GetStringSlice("relaysMust"), actors.GetWaitGroup())
	}
	conductor.OnReceipts = func(source nostr.Event, receipts []token.Receipt) {
		// a crash must not lose an accepted event, or relays would replay it onto an older ledger
		if err := persist(tk, chain); err != nil {
			library.LogCLI(err.Error(), 1)
		}
		if publisher == nil {
			return
		}
		if e, err := stateEvent(chain, source, receipts); err != nil {
			library.LogCLI(err.Error(), 1)
		} else {
			publisher.Publish(e)
		}
	}

	events := make(chan nostr.Event)
	actors.GetWaitGroup().Add(2)
	go func() {
		defer actors.GetWaitGroup().Done()
		relays.Subscribe(ctx, conf.GetStringSlice("relaysMust"), eventconductor.Kinds, events)
	}()
	go func() {
		defer actors.GetWaitGroup().Done()
		conductor.Run(events, terminateChan)
	}()

	interrupt := make(chan struct{})
	go cliListener(interrupt, tk, chain)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-interrupt:
	case <-signals:
	case <-relays.Sleeper():
		library.LogCLI("system sleep detected, terminating application", 2)
	}
	cancel()
	actors.Shutdown()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err = server.Shutdown(shutdownCtx); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	if err = persist(tk, chain); err != nil {
		library.LogCLI(err.Error(), 1)
	}
	fmt.Println("Goodbye")
}

type publishedState struct {
	Event      library.Sha256  `json:"event"`
	Receipts   []token.Receipt `json:"receipts"`
	ReplayHash library.Sha256  `json:"replay_hash"`
}

func stateEvent(chain *replay.Chain, source nostr.Event, receipts []token.Receipt) (nostr.Event, error) {
	hash, err := chain.StateHash()
	if err != nil {
		return nostr.Event{}, err
	}
	b, err := json.Marshal(publishedState{Event: source.ID, Receipts: receipts, ReplayHash: hash})
	if err != nil {
		return nostr.Event{}, err
	}
	return actors.CurrentStateEventBuilder(string(b))
}
