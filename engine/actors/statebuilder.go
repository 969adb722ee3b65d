package actors

import (
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// KindCurrentState is the replaceable event carrying the engine's latest receipts and state hash.
const KindCurrentState = 10311

func CurrentStateEventBuilder(state string) (nostr.Event, error) {
	e := nostr.Event{
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      KindCurrentState,
		Tags:      nostr.Tags{nostr.Tag{"e", StateEvents, "", "root"}},
		Content:   state,
	}
	err := Sign(MyWallet(), &e)
	return e, err
}
