// Package eventconductor applies signed operation events to the token, one
// at a time, in the order each author chained them.
package eventconductor

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"dividendtoken/engine/library"
	"dividendtoken/engine/metrics"
	"dividendtoken/state/claims"
	"dividendtoken/state/replay"
	"dividendtoken/state/token"
)

// maxAttempts bounds how often a held event is retried.
const maxAttempts = 10

type Conductor struct {
	mutex   *deadlock.Mutex
	token   *token.Token
	replay  *replay.Chain
	handled map[library.Sha256]struct{}
	// OnReceipts, if set, is called with the receipts of every accepted event.
	OnReceipts func(source nostr.Event, receipts []token.Receipt)
}

func New(t *token.Token, r *replay.Chain) *Conductor {
	return &Conductor{
		mutex:   &deadlock.Mutex{},
		token:   t,
		replay:  r,
		handled: make(map[library.Sha256]struct{}),
	}
}

// HandleEvent verifies e, checks it extends its author's replay chain and
// applies the operation it carries. The chain only advances on success.
func (c *Conductor) HandleEvent(e nostr.Event) (r []token.Receipt, err error) {
	done := library.Watch(fmt.Sprintf("event %s kind %d", e.ID, e.Kind))
	defer done()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer func() {
		metrics.EventsTotal.WithLabelValues(strconv.Itoa(e.Kind), metrics.Status(err)).Inc()
	}()
	if _, exists := c.handled[e.ID]; exists {
		return nil, fmt.Errorf("event %s is already in our local state", e.ID)
	}
	if e.ID != e.GetID() {
		return nil, fmt.Errorf("event %s has an invalid ID", e.ID)
	}
	if ok, _ := e.CheckSignature(); !ok {
		return nil, fmt.Errorf("event %s has an invalid signature", e.ID)
	}
	if err = c.replay.Check(e); err != nil {
		return nil, err
	}
	if r, err = c.route(e); err != nil {
		return nil, fmt.Errorf("event %s kind %d: %w", e.ID, e.Kind, err)
	}
	c.replay.Advance(e)
	c.handled[e.ID] = struct{}{}
	library.LogCLI(fmt.Sprintf("Handled event %s kind %d from %s", e.ID, e.Kind, e.PubKey), 3)
	if c.OnReceipts != nil {
		c.OnReceipts(e, r)
	}
	return r, nil
}

// route applies e. Emission is timed by when the event was signed, so
// replaying the same events later rebuilds the same ledger.
func (c *Conductor) route(e nostr.Event) ([]token.Receipt, error) {
	caller := e.PubKey
	at := e.CreatedAt.Time()
	switch e.Kind {
	case KindClaim:
		var content Kind641000
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		endorsement, err := claims.ParseEndorsement(content.V, content.R, content.S)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err, library.ErrUnauthorized)
		}
		return c.token.Claim(caller, content.Identifier, endorsement)
	case KindStart:
		return c.token.StartAt(caller, at)
	case KindTransfer:
		var content Kind641004
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		amount, err := library.ParseAmount(content.Amount)
		if err != nil {
			return nil, err
		}
		if err = checkAccount(content.To); err != nil {
			return nil, err
		}
		return c.token.TransferAt(caller, content.To, amount, at)
	case KindBurn:
		var content Kind641006
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		amount, err := library.ParseAmount(content.Amount)
		if err != nil {
			return nil, err
		}
		return c.token.Burn(caller, amount)
	case KindWithdraw:
		return c.token.WithdrawDividend(caller)
	case KindAuthorityKey:
		var content Kind641010
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		key, err := claims.ParseAuthority(content.Key)
		if err != nil {
			return nil, err
		}
		return c.token.ChangeAuthorityKey(caller, key)
	case KindSetBlacklisted:
		var content Kind641012
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		if err := checkAccount(content.Account); err != nil {
			return nil, err
		}
		return c.token.SetBlacklisted(caller, content.Account, content.Blacklisted)
	case KindApprove:
		var content Kind641014
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		amount, err := library.ParseAmount(content.Amount)
		if err != nil {
			return nil, err
		}
		if err = checkAccount(content.Spender); err != nil {
			return nil, err
		}
		return c.token.Approve(caller, content.Spender, amount)
	case KindTransferFrom:
		var content Kind641016
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		amount, err := library.ParseAmount(content.Amount)
		if err != nil {
			return nil, err
		}
		if err = checkAccount(content.From); err != nil {
			return nil, err
		}
		if err = checkAccount(content.To); err != nil {
			return nil, err
		}
		return c.token.TransferFromAt(caller, content.From, content.To, amount, at)
	case KindTransferControl:
		var content Kind641018
		if err := unmarshal(e, &content); err != nil {
			return nil, err
		}
		return c.token.TransferControl(caller, content.Controller)
	}
	return nil, fmt.Errorf("no operation for kind %d", e.Kind)
}

func unmarshal(e nostr.Event, v any) error {
	if err := json.Unmarshal([]byte(e.Content), v); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}
	return nil
}

func checkAccount(a library.Account) error {
	if !library.ValidAccount(a) {
		return fmt.Errorf("%q is not a valid account", a)
	}
	return nil
}

// Run handles events in arrival order until terminate is closed or events is
// closed. Relays do not deliver in signing order, so an event that is ahead of
// its author's chain, or spends funds another author has not sent yet, is
// held and retried after later events succeed.
func (c *Conductor) Run(events <-chan nostr.Event, terminate <-chan struct{}) {
	queue := library.NewQueue[nostr.Event](16)
	held := newRetries(maxAttempts)
	for {
		select {
		case <-terminate:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			queue.Push(e)
		}
		for {
			event, ok := queue.Pop()
			if !ok {
				break
			}
			_, err := c.HandleEvent(event)
			switch {
			case err == nil:
				held.succeeded(event.ID)
				// something changed, so held events may now apply
				queue.Push(held.release()...)
			case retryable(err):
				if !held.hold(event) {
					library.LogCLI(fmt.Sprintf("giving up on event %s: %s", event.ID, err), 2)
				}
			default:
				library.LogCLI(err.Error(), 2)
			}
		}
	}
}
