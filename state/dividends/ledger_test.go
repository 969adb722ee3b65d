package dividends

import (
	"errors"
	"math/big"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dividendtoken/engine/library"
)

var (
	pool  = strings.Repeat("0", 64)
	alice = strings.Repeat("a", 64)
	bob   = strings.Repeat("b", 64)
	carol = strings.Repeat("c", 64)
)

func n(x int64) *big.Int {
	return big.NewInt(x)
}

func eq(t *testing.T, want int64, got *big.Int, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, big.NewInt(want).String(), got.String(), msgAndArgs...)
}

func sumBalances(l *Ledger) *big.Int {
	sum := new(big.Int)
	for _, acc := range l.accounts {
		sum.Add(sum, acc.Balance)
	}
	return sum
}

func TestMintBurnMoveKeepSupply(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(100)))
	require.NoError(t, l.Mint(bob, n(50)))
	require.NoError(t, l.Move(alice, bob, n(30)))
	require.NoError(t, l.Burn(bob, n(20)))

	eq(t, 70, l.BalanceOf(alice))
	eq(t, 60, l.BalanceOf(bob))
	eq(t, 130, l.TotalSupply())
	assert.Equal(t, l.TotalSupply().String(), sumBalances(l).String())
}

func TestInsufficientBalanceChangesNothing(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(10)))
	before := l.Export()

	assert.True(t, errors.Is(l.Move(alice, bob, n(11)), library.ErrInsufficientBalance))
	assert.True(t, errors.Is(l.Burn(alice, n(11)), library.ErrInsufficientBalance))
	assert.True(t, errors.Is(l.Burn(bob, n(1)), library.ErrInsufficientBalance))
	assert.Equal(t, before, l.Export())
}

func TestNegativeAmountsRejected(t *testing.T) {
	l := New(pool)
	assert.True(t, errors.Is(l.Mint(alice, n(-1)), library.ErrInvalidAmount))
	assert.True(t, errors.Is(l.Move(alice, bob, n(-1)), library.ErrInvalidAmount))
	assert.True(t, errors.Is(l.Burn(alice, nil), library.ErrInvalidAmount))
}

func TestDistributeSplitsByBalance(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(300)))
	require.NoError(t, l.Mint(bob, n(100)))

	require.True(t, l.Distribute(n(400)))
	eq(t, 300, l.WithdrawableDividendOf(alice))
	eq(t, 100, l.WithdrawableDividendOf(bob))
	eq(t, 0, l.WithdrawableDividendOf(pool))
	eq(t, 400, l.BalanceOf(pool))
	eq(t, 800, l.TotalSupply())
}

func TestDistributeIsNoopWithoutBearingSupply(t *testing.T) {
	l := New(pool)
	assert.False(t, l.Distribute(n(10)))
	require.NoError(t, l.Mint(pool, n(10)))
	assert.False(t, l.Distribute(n(10)))
	require.NoError(t, l.Mint(alice, n(10)))
	assert.False(t, l.Distribute(n(0)))
	assert.False(t, l.Distribute(nil))
	eq(t, 20, l.TotalSupply())
}

func TestDistributeMintsNothingWhenOnlyThePoolHolds(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(100)))
	require.NoError(t, l.Move(alice, pool, n(100)))
	assert.False(t, l.Distribute(n(100)))
	eq(t, 100, l.TotalSupply())
	eq(t, 100, l.BalanceOf(pool))
	eq(t, 0, l.DividendPerShare())

	// a reward too small to raise the magnified rate is skipped too
	huge := new(big.Int).Add(Magnitude, big.NewInt(1))
	require.NoError(t, l.Mint(bob, huge))
	supply := l.TotalSupply()
	assert.False(t, l.Distribute(n(1)))
	assert.Equal(t, supply.String(), l.TotalSupply().String())
	eq(t, 0, l.DividendPerShare())

	assert.True(t, l.Distribute(n(2)))
}

func TestBalanceChangesDoNotMoveAccruedDividend(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(100)))
	require.NoError(t, l.Mint(bob, n(100)))
	require.True(t, l.Distribute(n(50)))
	aliceAccrued := l.AccumulativeDividendOf(alice)
	bobAccrued := l.AccumulativeDividendOf(bob)

	require.NoError(t, l.Move(alice, bob, n(60)))
	require.NoError(t, l.Mint(alice, n(1000)))
	require.NoError(t, l.Burn(bob, n(10)))

	assert.Equal(t, aliceAccrued.String(), l.AccumulativeDividendOf(alice).String())
	assert.Equal(t, bobAccrued.String(), l.AccumulativeDividendOf(bob).String())
	eq(t, 0, l.AccumulativeDividendOf(carol))
}

func TestPoolNeverAccrues(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(1000)))
	for i := 0; i < 20; i++ {
		require.True(t, l.Distribute(n(int64(100+i))))
		eq(t, 0, l.WithdrawableDividendOf(pool), "after distribution %d", i)
		if i%3 == 0 {
			_, err := l.Withdraw(alice)
			require.NoError(t, err)
		}
	}
	_, err := l.Withdraw(pool)
	assert.True(t, errors.Is(err, library.ErrZeroDividend))
}

func TestWithdraw(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(16)))
	require.NoError(t, l.Mint(bob, n(48)))
	require.True(t, l.Distribute(n(8)))

	amount, err := l.Withdraw(alice)
	require.NoError(t, err)
	eq(t, 2, amount)
	eq(t, 18, l.BalanceOf(alice))
	eq(t, 6, l.BalanceOf(pool))
	eq(t, 2, l.WithdrawnDividendOf(alice))
	eq(t, 0, l.WithdrawableDividendOf(alice))

	_, err = l.Withdraw(alice)
	assert.True(t, errors.Is(err, library.ErrZeroDividend))

	// withdrawn tokens earn like any other balance
	require.True(t, l.Distribute(n(66)))
	eq(t, 18, l.WithdrawableDividendOf(alice))
	eq(t, 20, l.AccumulativeDividendOf(alice))
	eq(t, 54, l.WithdrawableDividendOf(bob))
}

func TestExportImport(t *testing.T) {
	l := New(pool)
	require.NoError(t, l.Mint(alice, n(7)))
	require.NoError(t, l.Mint(bob, n(3)))
	require.True(t, l.Distribute(n(5)))
	_, err := l.Withdraw(alice)
	require.NoError(t, err)

	state := l.Export()
	restored := New("")
	require.NoError(t, restored.Import(state))
	assert.Equal(t, pool, restored.Pool())
	assert.Equal(t, l.TotalSupply().String(), restored.TotalSupply().String())
	assert.Equal(t, l.DividendPerShare().String(), restored.DividendPerShare().String())
	for _, a := range []library.Account{alice, bob, pool} {
		assert.Equal(t, l.BalanceOf(a).String(), restored.BalanceOf(a).String())
		assert.Equal(t, l.WithdrawableDividendOf(a).String(), restored.WithdrawableDividendOf(a).String())
	}

	// the export is a deep copy
	state.Accounts[alice].Balance.SetInt64(1)
	eq(t, 10, l.BalanceOf(alice))

	state = l.Export()
	state.TotalSupply = n(1)
	assert.Error(t, New(pool).Import(state))
}

// naive pays every distribution out to instantaneous balances with exact fractions.
type naive struct {
	owed      map[library.Account]*big.Rat
	withdrawn map[library.Account]*big.Int
}

func (s *naive) distribute(l *Ledger, reward *big.Int) {
	bearing := l.bearingSupply()
	for a, acc := range l.accounts {
		if a == l.pool || acc.Balance.Sign() == 0 {
			continue
		}
		share := new(big.Rat).SetFrac(new(big.Int).Mul(reward, acc.Balance), bearing)
		if s.owed[a] == nil {
			s.owed[a] = new(big.Rat)
		}
		s.owed[a].Add(s.owed[a], share)
	}
}

func (s *naive) withdrawable(a library.Account) *big.Int {
	owed, ok := s.owed[a]
	if !ok {
		return new(big.Int)
	}
	floor := new(big.Int).Quo(owed.Num(), owed.Denom())
	if w, ok := s.withdrawn[a]; ok {
		floor.Sub(floor, w)
	}
	return floor
}

func TestAccrualMatchesNaiveSimulation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	accounts := []library.Account{alice, bob, carol}
	l := New(pool)
	sim := &naive{owed: map[library.Account]*big.Rat{}, withdrawn: map[library.Account]*big.Int{}}
	distributions := 0
	unit := new(big.Int).Exp(n(10), n(18), nil)

	random := func(max *big.Int) *big.Int {
		if max.Sign() <= 0 {
			return new(big.Int)
		}
		return new(big.Int).Rand(rng, new(big.Int).Add(max, n(1)))
	}

	for step := 0; step < 2000; step++ {
		a := accounts[rng.Intn(len(accounts))]
		b := accounts[rng.Intn(len(accounts))]
		switch rng.Intn(5) {
		case 0:
			require.NoError(t, l.Mint(a, random(new(big.Int).Mul(unit, n(10)))))
		case 1:
			require.NoError(t, l.Burn(a, random(l.BalanceOf(a))))
		case 2:
			require.NoError(t, l.Move(a, b, random(l.BalanceOf(a))))
		case 3:
			reward := random(unit)
			bearing := l.bearingSupply()
			if bearing.Sign() > 0 && reward.Sign() > 0 {
				sim.distribute(l, reward)
			}
			if l.Distribute(reward) {
				distributions++
			}
			eq(t, 0, l.WithdrawableDividendOf(pool))
		case 4:
			amount, err := l.Withdraw(a)
			if err != nil {
				require.True(t, errors.Is(err, library.ErrZeroDividend))
				break
			}
			if sim.withdrawn[a] == nil {
				sim.withdrawn[a] = new(big.Int)
			}
			sim.withdrawn[a].Add(sim.withdrawn[a], amount)
		}

		require.Equal(t, l.TotalSupply().String(), sumBalances(l).String(), "step %d", step)
		for _, acc := range accounts {
			lazy := l.WithdrawableDividendOf(acc)
			exact := sim.withdrawable(acc)
			gap := new(big.Int).Sub(exact, lazy)
			require.True(t, gap.Sign() >= 0, "step %d: %s lazy %s above exact %s", step, acc, lazy, exact)
			require.True(t, gap.Cmp(n(int64(distributions+1))) <= 0, "step %d: %s gap %s", step, acc, gap)
			require.True(t, l.AccumulativeDividendOf(acc).Cmp(l.WithdrawnDividendOf(acc)) >= 0)
		}
	}
	assert.Greater(t, distributions, 0)
}
