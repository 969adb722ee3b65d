package token

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"dividendtoken/engine/library"
	"dividendtoken/state/claims"
	"dividendtoken/state/dividends"
)

// State is everything needed to rebuild a Token. It is written to disk as JSON.
type State struct {
	Ledger         dividends.State                                  `json:"ledger"`
	Authority      string                                           `json:"authority,omitempty"`
	Claimed        []library.Identifier                             `json:"claimed"`
	Controller     library.Account                                  `json:"controller"`
	Blacklist      []library.Account                                `json:"blacklist"`
	Allowances     map[library.Account]map[library.Account]*big.Int `json:"allowances"`
	StartedAt      *time.Time                                       `json:"started_at,omitempty"`
	StartRecipient library.Account                                  `json:"start_recipient"`
}

func (t *Token) Snapshot() State {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	s := State{
		Ledger:         t.ledger.Export(),
		Claimed:        t.gate.ClaimedIdentifiers(),
		Controller:     t.policy.Controller(),
		Blacklist:      t.policy.BlacklistedAccounts(),
		Allowances:     make(map[library.Account]map[library.Account]*big.Int),
		StartRecipient: t.startRecipient,
	}
	if key := t.gate.Authority(); key != nil {
		s.Authority = hex.EncodeToString(key.SerializeCompressed())
	}
	for owner, spenders := range t.allowances {
		s.Allowances[owner] = make(map[library.Account]*big.Int, len(spenders))
		for spender, amount := range spenders {
			s.Allowances[owner][spender] = new(big.Int).Set(amount)
		}
	}
	if t.startedAt != nil {
		started := *t.startedAt
		s.StartedAt = &started
	}
	return s
}

// Restore replaces the token's state with s. On error nothing changes.
func (t *Token) Restore(s State) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if s.Ledger.Pool != t.ledger.Pool() {
		return fmt.Errorf("snapshot pool %s does not match configured pool %s", s.Ledger.Pool, t.ledger.Pool())
	}
	ledger := dividends.New(s.Ledger.Pool)
	if err := ledger.Import(s.Ledger); err != nil {
		return err
	}
	gate := claims.New(nil)
	var authority = t.gate.Authority()
	if len(s.Authority) > 0 {
		key, err := claims.ParseAuthority(s.Authority)
		if err != nil {
			return err
		}
		authority = key
	}
	gate.Restore(authority, s.Claimed)
	allowances := make(map[library.Account]map[library.Account]*big.Int, len(s.Allowances))
	for owner, spenders := range s.Allowances {
		allowances[owner] = make(map[library.Account]*big.Int, len(spenders))
		for spender, amount := range spenders {
			if amount == nil || amount.Sign() < 0 {
				return fmt.Errorf("allowance of %s for %s: %w", spender, owner, library.ErrInvalidAmount)
			}
			allowances[owner][spender] = new(big.Int).Set(amount)
		}
	}
	t.ledger = ledger
	t.gate = gate
	t.policy.Restore(s.Controller, s.Blacklist)
	t.allowances = allowances
	t.startedAt = nil
	if s.StartedAt != nil {
		started := *s.StartedAt
		t.startedAt = &started
	}
	if len(s.StartRecipient) > 0 {
		t.startRecipient = s.StartRecipient
	}
	return nil
}
