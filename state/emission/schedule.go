// Package emission turns wall clock time since start into a halving era and
// an era into the reward paid for a transfer.
package emission

import (
	"math"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// HalvingPeriod is the length of one era.
	HalvingPeriod = 30 * 24 * time.Hour
	// FinalEra is the last era that still emits.
	FinalEra uint64 = 255
	// EraUnbounded is reported before emission has started.
	EraUnbounded uint64 = math.MaxUint64
)

type Schedule struct {
	clock         clockwork.Clock
	halvingPeriod time.Duration
	finalEra      uint64
}

// New returns a Schedule. A nil clock is the real clock and a non-positive
// period is HalvingPeriod. finalEra is taken as given: 0 emits during era 0 only.
func New(clock clockwork.Clock, halvingPeriod time.Duration, finalEra uint64) Schedule {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if halvingPeriod <= 0 {
		halvingPeriod = HalvingPeriod
	}
	return Schedule{clock: clock, halvingPeriod: halvingPeriod, finalEra: finalEra}
}

func (s Schedule) Now() time.Time {
	return s.clock.Now()
}

func (s Schedule) FinalEra() uint64 {
	return s.finalEra
}

func (s Schedule) HalvingPeriod() time.Duration {
	return s.halvingPeriod
}

// CurrentEra returns EraUnbounded if startedAt is nil.
func (s Schedule) CurrentEra(startedAt *time.Time) uint64 {
	return s.EraAt(startedAt, s.clock.Now())
}

// EraAt is the era at time at. Times before startedAt are era 0.
func (s Schedule) EraAt(startedAt *time.Time, at time.Time) uint64 {
	if startedAt == nil {
		return EraUnbounded
	}
	elapsed := at.Sub(*startedAt)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / s.halvingPeriod)
}

// Emitting reports whether a transfer at this moment can still mint a reward.
func (s Schedule) Emitting(startedAt *time.Time) bool {
	return s.EmittingAt(startedAt, s.clock.Now())
}

func (s Schedule) EmittingAt(startedAt *time.Time, at time.Time) bool {
	if startedAt == nil {
		return false
	}
	return s.EraAt(startedAt, at) <= s.finalEra
}

// Bound returns at, or now if at is zero or later than now.
func (s Schedule) Bound(at time.Time) time.Time {
	now := s.clock.Now()
	if at.IsZero() || at.After(now) {
		return now
	}
	return at
}

// RewardMultiplier is 1/2^era up to the final era and zero after it.
func (s Schedule) RewardMultiplier(era uint64) *big.Rat {
	if era > s.finalEra {
		return new(big.Rat)
	}
	denominator := new(big.Int).Lsh(big.NewInt(1), uint(era))
	return new(big.Rat).SetFrac(big.NewInt(1), denominator)
}

// RewardFor is floor(amount * RewardMultiplier(era)), computed as a right shift.
func (s Schedule) RewardFor(amount *big.Int, era uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || era > s.finalEra {
		return new(big.Int)
	}
	if era >= uint64(amount.BitLen()) {
		return new(big.Int)
	}
	return new(big.Int).Rsh(amount, uint(era))
}
