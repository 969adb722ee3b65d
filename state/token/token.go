// Package token is the externally visible token: it applies each operation
// against the claim gate, access policy, emission schedule and dividend
// ledger, in that order, under one lock.
package token

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/sasha-s/go-deadlock"

	"dividendtoken/engine/library"
	"dividendtoken/engine/metrics"
	"dividendtoken/state/access"
	"dividendtoken/state/claims"
	"dividendtoken/state/dividends"
	"dividendtoken/state/emission"
)

const Decimals = 18

// Unit is one whole token in base units, the amount minted per claim.
var Unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

type Token struct {
	mutex          *deadlock.Mutex
	ledger         *dividends.Ledger
	gate           *claims.Gate
	policy         *access.Policy
	schedule       emission.Schedule
	allowances     map[library.Account]map[library.Account]*big.Int
	startedAt      *time.Time
	startRecipient library.Account
}

func New(cfg Config) (*Token, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	finalEra := emission.FinalEra
	if cfg.FinalEra != nil {
		finalEra = *cfg.FinalEra
	}
	return &Token{
		mutex:          &deadlock.Mutex{},
		ledger:         dividends.New(cfg.Pool),
		gate:           claims.New(cfg.Authority),
		policy:         access.New(cfg.Controller),
		schedule:       emission.New(cfg.Clock, cfg.HalvingPeriod, finalEra),
		allowances:     make(map[library.Account]map[library.Account]*big.Int),
		startRecipient: cfg.StartRecipient,
	}, nil
}

// observe records the outcome of an operation. Callers hold the lock.
func (t *Token) observe(operation string, err error) {
	metrics.OperationsTotal.WithLabelValues(operation, metrics.Status(err)).Inc()
	if err != nil {
		return
	}
	metrics.SetBig(metrics.TotalSupply, t.ledger.TotalSupply())
	if era := t.schedule.CurrentEra(t.startedAt); era == emission.EraUnbounded {
		metrics.HalvingEra.Set(-1)
	} else {
		metrics.HalvingEra.Set(float64(era))
	}
}

// Claim mints one Unit to claimant for an identifier endorsed by the authority key.
func (t *Token) Claim(claimant library.Account, id library.Identifier, e claims.Endorsement) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("claim", err) }()
	if err = t.gate.Check(id, claimant, e); err != nil {
		return nil, err
	}
	t.gate.Mark(id)
	if err = t.ledger.Mint(claimant, Unit); err != nil {
		return nil, err
	}
	return []Receipt{{Kind: ReceiptClaim, To: claimant, Amount: new(big.Int).Set(Unit), Note: id.String()}}, nil
}

// Start doubles the supply into the start recipient's balance and turns on emission. It can run once.
func (t *Token) Start(caller library.Account) ([]Receipt, error) {
	return t.StartAt(caller, time.Time{})
}

// StartAt is Start with emission counted from at. An at later than the
// token's clock, or zero, means now.
func (t *Token) StartAt(caller library.Account, at time.Time) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("start", err) }()
	if err = t.policy.Authorize(caller); err != nil {
		return nil, err
	}
	if t.startedAt != nil {
		return nil, fmt.Errorf("started at %s: %w", t.startedAt.UTC().Format(time.RFC3339), library.ErrAlreadyStarted)
	}
	bulk := t.ledger.TotalSupply()
	if err = t.ledger.Mint(t.startRecipient, bulk); err != nil {
		return nil, err
	}
	started := t.schedule.Bound(at)
	t.startedAt = &started
	return []Receipt{{Kind: ReceiptStart, To: t.startRecipient, Amount: bulk}}, nil
}

// Transfer moves amount and, while emission runs and the sender is not
// blacklisted, distributes the era's reward for it to every holder.
func (t *Token) Transfer(from, to library.Account, amount *big.Int) ([]Receipt, error) {
	return t.TransferAt(from, to, amount, time.Time{})
}

// TransferAt is Transfer with the reward taken from the era at time at,
// bounded by the token's clock like StartAt.
func (t *Token) TransferAt(from, to library.Account, amount *big.Int, at time.Time) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("transfer", err) }()
	return t.transfer(from, to, amount, t.schedule.Bound(at))
}

func (t *Token) transfer(from, to library.Account, amount *big.Int, at time.Time) ([]Receipt, error) {
	if err := t.ledger.Move(from, to, amount); err != nil {
		return nil, err
	}
	r := []Receipt{{Kind: ReceiptTransfer, From: from, To: to, Amount: new(big.Int).Set(amount)}}
	if d, ok := t.emit(from, amount, at); ok {
		r = append(r, d)
	}
	return r, nil
}

// emit runs after the move so the sender and receiver earn from this round at their new balances.
func (t *Token) emit(from library.Account, amount *big.Int, at time.Time) (Receipt, bool) {
	if !t.schedule.EmittingAt(t.startedAt, at) || t.policy.Blacklisted(from) {
		return Receipt{}, false
	}
	era := t.schedule.EraAt(t.startedAt, at)
	reward := t.schedule.RewardFor(amount, era)
	if !t.ledger.Distribute(reward) {
		return Receipt{}, false
	}
	metrics.DistributionsTotal.Inc()
	return Receipt{Kind: ReceiptDistribution, To: t.ledger.Pool(), Amount: reward, Era: era}, true
}

func (t *Token) Burn(caller library.Account, amount *big.Int) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("burn", err) }()
	if err = t.ledger.Burn(caller, amount); err != nil {
		return nil, err
	}
	return []Receipt{{Kind: ReceiptBurn, From: caller, Amount: new(big.Int).Set(amount)}}, nil
}

// WithdrawDividend pays out everything caller has accrued and not yet withdrawn. It never emits.
func (t *Token) WithdrawDividend(caller library.Account) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("withdraw", err) }()
	amount, err := t.ledger.Withdraw(caller)
	if err != nil {
		return nil, err
	}
	metrics.WithdrawalsTotal.Inc()
	return []Receipt{{Kind: ReceiptWithdrawal, From: t.ledger.Pool(), To: caller, Amount: amount}}, nil
}

func (t *Token) ChangeAuthorityKey(caller library.Account, key *btcec.PublicKey) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("authority", err) }()
	if err = t.policy.Authorize(caller); err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("authority key is required")
	}
	t.gate.SetAuthority(key)
	return []Receipt{{Kind: ReceiptAuthority, From: caller, Note: hex.EncodeToString(key.SerializeCompressed())}}, nil
}

func (t *Token) SetBlacklisted(caller, account library.Account, blacklisted bool) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("blacklist", err) }()
	if err = t.policy.SetBlacklisted(caller, account, blacklisted); err != nil {
		return nil, err
	}
	return []Receipt{{Kind: ReceiptBlacklist, From: caller, To: account, Note: fmt.Sprint(blacklisted)}}, nil
}

func (t *Token) TransferControl(caller, next library.Account) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("control", err) }()
	if err = t.policy.TransferControl(caller, next); err != nil {
		return nil, err
	}
	return []Receipt{{Kind: ReceiptControl, From: caller, To: next}}, nil
}

// Approve sets how much spender may move out of owner's balance.
func (t *Token) Approve(owner, spender library.Account, amount *big.Int) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("approve", err) }()
	if amount == nil || amount.Sign() < 0 {
		return nil, library.ErrInvalidAmount
	}
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[library.Account]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
	return []Receipt{{Kind: ReceiptApproval, From: owner, To: spender, Amount: new(big.Int).Set(amount)}}, nil
}

// TransferFrom is Transfer on behalf of from, spending spender's allowance.
func (t *Token) TransferFrom(spender, from, to library.Account, amount *big.Int) ([]Receipt, error) {
	return t.TransferFromAt(spender, from, to, amount, time.Time{})
}

func (t *Token) TransferFromAt(spender, from, to library.Account, amount *big.Int, at time.Time) (r []Receipt, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	defer func() { t.observe("transferFrom", err) }()
	if err = t.ledger.CanDebit(from, amount); err != nil {
		return nil, err
	}
	allowance := t.allowance(from, spender)
	if allowance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%s may spend %s of %s, needs %s: %w", spender, allowance, from, amount, library.ErrInsufficientAllowance)
	}
	if r, err = t.transfer(from, to, amount, t.schedule.Bound(at)); err != nil {
		return nil, err
	}
	if spenders, ok := t.allowances[from]; ok {
		spenders[spender] = allowance.Sub(allowance, amount)
	}
	return r, nil
}

func (t *Token) allowance(owner, spender library.Account) *big.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (t *Token) Allowance(owner, spender library.Account) *big.Int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.allowance(owner, spender)
}

func (t *Token) BalanceOf(account library.Account) *big.Int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ledger.BalanceOf(account)
}

func (t *Token) TotalSupply() *big.Int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ledger.TotalSupply()
}

func (t *Token) WithdrawableDividendOf(account library.Account) *big.Int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ledger.WithdrawableDividendOf(account)
}

func (t *Token) WithdrawnDividendOf(account library.Account) *big.Int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ledger.WithdrawnDividendOf(account)
}

func (t *Token) AccumulativeDividendOf(account library.Account) *big.Int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ledger.AccumulativeDividendOf(account)
}

// CurrentHalvingEra returns emission.EraUnbounded before Start.
func (t *Token) CurrentHalvingEra() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.schedule.CurrentEra(t.startedAt)
}

// Emitting reports whether a transfer now would distribute a reward.
func (t *Token) Emitting() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.schedule.Emitting(t.startedAt)
}

func (t *Token) Blacklisted(account library.Account) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.policy.Blacklisted(account)
}

func (t *Token) Claimed(id library.Identifier) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.gate.Claimed(id)
}

func (t *Token) StartedAt() (time.Time, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.startedAt == nil {
		return time.Time{}, false
	}
	return *t.startedAt, true
}

func (t *Token) Controller() library.Account {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.policy.Controller()
}

func (t *Token) Pool() library.Account {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ledger.Pool()
}

// Holders returns every account the ledger has seen, with its balance.
func (t *Token) Holders() map[library.Account]*big.Int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	m := make(map[library.Account]*big.Int)
	for account, acc := range t.ledger.Export().Accounts {
		m[account] = acc.Balance
	}
	return m
}
