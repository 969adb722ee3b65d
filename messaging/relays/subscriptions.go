// Package relays moves signed events between the engine and nostr relays.
package relays

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"dividendtoken/engine/library"
)

// Filters selects every event of the given kinds.
func Filters(kinds []int) nostr.Filters {
	return nostr.Filters{nostr.Filter{Kinds: kinds}}
}

// Subscribe sends every validly signed event matching kinds from any of urls
// to out, once, until ctx is done. Dropped connections are retried.
func Subscribe(ctx context.Context, urls []string, kinds []int, out chan<- nostr.Event) {
	seen := newCache()
	wait := &deadlock.WaitGroup{}
	for _, url := range urls {
		wait.Add(1)
		go func(url string) {
			defer wait.Done()
			for {
				if err := subscribeOne(ctx, url, kinds, seen, out); err != nil {
					library.LogCLI(fmt.Sprintf("%s: %s", url, err), 2)
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
					library.LogCLI("Reconnecting to "+url, 4)
				}
			}
		}(url)
	}
	wait.Wait()
}

func subscribeOne(ctx context.Context, url string, kinds []int, seen *cache, out chan<- nostr.Event) error {
	relay, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return err
	}
	defer relay.Close()
	// cancelling the subscription's context closes it
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sub, err := relay.Subscribe(subCtx, Filters(kinds))
	if err != nil {
		return err
	}
	library.LogCLI("Connected to "+url, 4)
	eose := sub.EndOfStoredEvents
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-eose:
			eose = nil
			library.LogCLI("Caught up with stored events from "+url, 4)
		case ev, ok := <-sub.Events:
			if !ok || ev == nil {
				return fmt.Errorf("subscription closed")
			}
			if valid, _ := ev.CheckSignature(); !valid || !seen.push(*ev) {
				continue
			}
			select {
			case out <- *ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
