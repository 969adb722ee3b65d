// Package dividends keeps balances and pays every holder a share of each
// emission without visiting holders. A single magnified per-share rate grows
// on every distribution; each account carries a correction that cancels the
// part of the rate that accrued before it held its current balance.
//
//	accrued(a) = (perShare*balance(a) + correction(a)) / Magnitude
//
// Minting, burning and moving balance adjust only the corrections of the
// accounts involved, so accrued dividends never change as a side effect of a
// balance change.
package dividends

import (
	"fmt"
	"math/big"

	"dividendtoken/engine/library"
)

// Magnitude scales the per-share rate so integer division keeps precision.
var Magnitude = new(big.Int).Lsh(big.NewInt(1), 128)

type Account struct {
	Balance    *big.Int `json:"balance"`
	Withdrawn  *big.Int `json:"withdrawn"`
	Correction *big.Int `json:"correction"`
}

func newAccount() *Account {
	return &Account{
		Balance:    new(big.Int),
		Withdrawn:  new(big.Int),
		Correction: new(big.Int),
	}
}

func (a *Account) copy() *Account {
	return &Account{
		Balance:    new(big.Int).Set(a.Balance),
		Withdrawn:  new(big.Int).Set(a.Withdrawn),
		Correction: new(big.Int).Set(a.Correction),
	}
}

// Ledger is not safe for concurrent use. Every method either fails before
// touching state or completes.
type Ledger struct {
	pool        library.Account
	totalSupply *big.Int
	perShare    *big.Int
	accounts    map[library.Account]*Account
}

// New returns an empty ledger whose emitted rewards are held by pool.
func New(pool library.Account) *Ledger {
	return &Ledger{
		pool:        pool,
		totalSupply: new(big.Int),
		perShare:    new(big.Int),
		accounts:    make(map[library.Account]*Account),
	}
}

func (l *Ledger) Pool() library.Account {
	return l.pool
}

func (l *Ledger) account(a library.Account) *Account {
	acc, ok := l.accounts[a]
	if !ok {
		acc = newAccount()
		l.accounts[a] = acc
	}
	return acc
}

func (l *Ledger) balance(a library.Account) *big.Int {
	if acc, ok := l.accounts[a]; ok {
		return acc.Balance
	}
	return new(big.Int)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return library.ErrInvalidAmount
	}
	return nil
}

// CanDebit returns an error if a move or burn of amount from a would fail.
func (l *Ledger) CanDebit(a library.Account, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if l.balance(a).Cmp(amount) < 0 {
		return fmt.Errorf("%s holds %s, needs %s: %w", a, l.balance(a), amount, library.ErrInsufficientBalance)
	}
	return nil
}

// scaled returns perShare * amount.
func (l *Ledger) scaled(amount *big.Int) *big.Int {
	return new(big.Int).Mul(l.perShare, amount)
}

// Mint creates amount for a. Newly minted units carry no accrued history.
func (l *Ledger) Mint(a library.Account, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	acc := l.account(a)
	acc.Balance.Add(acc.Balance, amount)
	l.totalSupply.Add(l.totalSupply, amount)
	acc.Correction.Sub(acc.Correction, l.scaled(amount))
	return nil
}

// Burn destroys amount held by a, keeping what a has already accrued.
func (l *Ledger) Burn(a library.Account, amount *big.Int) error {
	if err := l.CanDebit(a, amount); err != nil {
		return err
	}
	acc := l.account(a)
	acc.Balance.Sub(acc.Balance, amount)
	l.totalSupply.Sub(l.totalSupply, amount)
	acc.Correction.Add(acc.Correction, l.scaled(amount))
	return nil
}

// Move transfers amount from one account to another at the current rate.
func (l *Ledger) Move(from, to library.Account, amount *big.Int) error {
	if err := l.CanDebit(from, amount); err != nil {
		return err
	}
	correction := l.scaled(amount)
	sender := l.account(from)
	sender.Balance.Sub(sender.Balance, amount)
	sender.Correction.Add(sender.Correction, correction)
	receiver := l.account(to)
	receiver.Balance.Add(receiver.Balance, amount)
	receiver.Correction.Sub(receiver.Correction, correction)
	return nil
}

// bearingSupply is the supply that earns dividends; the pool is exempt.
func (l *Ledger) bearingSupply() *big.Int {
	return new(big.Int).Sub(l.totalSupply, l.balance(l.pool))
}

// Distribute mints reward into the pool and spreads it over every other
// holder in proportion to balance. The fraction lost to integer division is
// forfeited. It reports whether anything was distributed.
func (l *Ledger) Distribute(reward *big.Int) bool {
	if reward == nil || reward.Sign() <= 0 {
		return false
	}
	bearing := l.bearingSupply()
	if bearing.Sign() <= 0 {
		return false
	}
	increase := new(big.Int).Mul(reward, Magnitude)
	increase.Quo(increase, bearing)
	if increase.Sign() == 0 {
		return false
	}
	l.perShare.Add(l.perShare, increase)
	// the pool's existing holding must not accrue from this increase
	pool := l.account(l.pool)
	pool.Correction.Sub(pool.Correction, new(big.Int).Mul(increase, pool.Balance))
	// minted at the updated rate, so the reward itself accrues nothing either
	_ = l.Mint(l.pool, reward)
	return true
}

// Withdraw pays a everything it has accrued but not yet withdrawn, out of the pool.
func (l *Ledger) Withdraw(a library.Account) (*big.Int, error) {
	amount := l.WithdrawableDividendOf(a)
	if amount.Sign() == 0 {
		return nil, fmt.Errorf("%s: %w", a, library.ErrZeroDividend)
	}
	if err := l.Move(l.pool, a, amount); err != nil {
		return nil, fmt.Errorf("paying %s from the pool: %w", a, err)
	}
	acc := l.account(a)
	acc.Withdrawn.Add(acc.Withdrawn, amount)
	return amount, nil
}

// AccumulativeDividendOf is every dividend a has ever earned, withdrawn or not.
func (l *Ledger) AccumulativeDividendOf(a library.Account) *big.Int {
	acc, ok := l.accounts[a]
	if !ok {
		return new(big.Int)
	}
	accrued := l.scaled(acc.Balance)
	accrued.Add(accrued, acc.Correction)
	if accrued.Sign() <= 0 {
		return new(big.Int)
	}
	return accrued.Quo(accrued, Magnitude)
}

func (l *Ledger) WithdrawableDividendOf(a library.Account) *big.Int {
	withdrawable := l.AccumulativeDividendOf(a)
	withdrawable.Sub(withdrawable, l.WithdrawnDividendOf(a))
	if withdrawable.Sign() < 0 {
		return new(big.Int)
	}
	return withdrawable
}

func (l *Ledger) WithdrawnDividendOf(a library.Account) *big.Int {
	if acc, ok := l.accounts[a]; ok {
		return new(big.Int).Set(acc.Withdrawn)
	}
	return new(big.Int)
}

func (l *Ledger) BalanceOf(a library.Account) *big.Int {
	return new(big.Int).Set(l.balance(a))
}

func (l *Ledger) TotalSupply() *big.Int {
	return new(big.Int).Set(l.totalSupply)
}

func (l *Ledger) DividendPerShare() *big.Int {
	return new(big.Int).Set(l.perShare)
}

// State is a deep copy of the ledger for persistence.
type State struct {
	Pool        library.Account              `json:"pool"`
	TotalSupply *big.Int                     `json:"total_supply"`
	PerShare    *big.Int                     `json:"dividend_per_share_magnified"`
	Accounts    map[library.Account]*Account `json:"accounts"`
}

func (l *Ledger) Export() State {
	s := State{
		Pool:        l.pool,
		TotalSupply: l.TotalSupply(),
		PerShare:    l.DividendPerShare(),
		Accounts:    make(map[library.Account]*Account, len(l.accounts)),
	}
	for a, acc := range l.accounts {
		s.Accounts[a] = acc.copy()
	}
	return s
}

// Import replaces the ledger's state. The total supply must equal the sum of balances.
func (l *Ledger) Import(s State) error {
	if s.TotalSupply == nil || s.PerShare == nil {
		return fmt.Errorf("ledger state is missing supply or rate")
	}
	sum := new(big.Int)
	accounts := make(map[library.Account]*Account, len(s.Accounts))
	for a, acc := range s.Accounts {
		if acc == nil || acc.Balance == nil || acc.Withdrawn == nil || acc.Correction == nil {
			return fmt.Errorf("ledger state for %s is incomplete", a)
		}
		if acc.Balance.Sign() < 0 || acc.Withdrawn.Sign() < 0 {
			return fmt.Errorf("ledger state for %s is negative", a)
		}
		sum.Add(sum, acc.Balance)
		accounts[a] = acc.copy()
	}
	if sum.Cmp(s.TotalSupply) != 0 {
		return fmt.Errorf("balances sum to %s but total supply is %s", sum, s.TotalSupply)
	}
	l.pool = s.Pool
	l.totalSupply = new(big.Int).Set(s.TotalSupply)
	l.perShare = new(big.Int).Set(s.PerShare)
	l.accounts = accounts
	return nil
}
