package eventconductor

import (
	"errors"

	"github.com/nbd-wtf/go-nostr"

	"dividendtoken/engine/library"
	"dividendtoken/state/replay"
)

// retryable errors can clear once another event is applied first.
func retryable(err error) bool {
	return errors.Is(err, replay.ErrReplay) ||
		errors.Is(err, library.ErrInsufficientBalance) ||
		errors.Is(err, library.ErrInsufficientAllowance)
}

// retries holds events that failed for now, counting attempts per event.
type retries struct {
	limit    int
	waiting  []nostr.Event
	attempts map[library.Sha256]int
}

func newRetries(limit int) *retries {
	return &retries{limit: limit, attempts: make(map[library.Sha256]int)}
}

// hold records a failed attempt and keeps e for later. It returns false,
// and forgets e, once e has failed limit times.
func (r *retries) hold(e nostr.Event) bool {
	r.attempts[e.ID]++
	if r.attempts[e.ID] >= r.limit {
		delete(r.attempts, e.ID)
		return false
	}
	r.waiting = append(r.waiting, e)
	return true
}

func (r *retries) succeeded(id library.Sha256) {
	delete(r.attempts, id)
}

// release hands back every held event for another attempt.
func (r *retries) release() []nostr.Event {
	w := r.waiting
	r.waiting = nil
	return w
}
