package main

import (
	"fmt"

	"dividendtoken/engine/actors"
	"dividendtoken/engine/library"
	"dividendtoken/state/replay"
	"dividendtoken/state/token"
)

// saved is the token and the replay chain in one file, so a crash can never
// leave one ahead of the other.
type saved struct {
	Token  token.State   `json:"token"`
	Replay replay.Mapped `json:"replay"`
}

const (
	savedStore = "engine"
	savedDB    = "current"
)

func persist(tk *token.Token, chain *replay.Chain) error {
	if err := actors.WriteJSON(savedStore, savedDB, saved{Token: tk.Snapshot(), Replay: chain.Map()}); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// restore loads the last saved state, if any, into tk and chain.
func restore(tk *token.Token, chain *replay.Chain) error {
	var s saved
	ok, err := actors.ReadJSON(savedStore, savedDB, &s)
	if err != nil || !ok {
		return err
	}
	if err = tk.Restore(s.Token); err != nil {
		return err
	}
	chain.Restore(s.Replay)
	library.LogCLI(fmt.Sprintf("Restored state with %d replay chains from disk", len(s.Replay)), 4)
	return nil
}
