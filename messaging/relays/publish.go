package relays

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"dividendtoken/engine/library"
)

// PublishToRelays sends events to every relay in parallel and waits until each has answered or timed out.
func PublishToRelays(ctx context.Context, events []nostr.Event, urls []string) {
	var wg = &deadlock.WaitGroup{}
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			relay, err := nostr.RelayConnect(ctx, url)
			if err != nil {
				library.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
				return
			}
			defer relay.Close()
			for _, event := range events {
				status, err := relay.Publish(ctx, event)
				if err != nil {
					library.LogCLI(fmt.Sprintf("could not publish %s to relay %s: %s", event.ID, url, err), 2)
					continue
				}
				library.LogCLI(fmt.Sprintf("event %s publish status on %s: %s", event.ID, url, status), 3)
			}
		}(url)
	}
	wg.Wait()
}

// Publisher queues events and publishes them in the background until ctx is done.
type Publisher struct {
	events chan nostr.Event
}

func StartPublisher(ctx context.Context, urls []string, wait *deadlock.WaitGroup) *Publisher {
	p := &Publisher{events: make(chan nostr.Event, 64)}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-p.events:
				PublishToRelays(ctx, []nostr.Event{e}, urls)
			}
		}
	}()
	return p
}

// Publish drops e with a warning if the queue is full.
func (p *Publisher) Publish(e nostr.Event) {
	select {
	case p.events <- e:
	default:
		library.LogCLI("publish queue is full, dropping event "+e.ID, 2)
	}
}
