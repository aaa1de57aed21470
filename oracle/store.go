package oracle

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// store holds the current rate table and the global freshness state. There
// is no per-token timestamp: freshness is tracked for the table as a whole
// and advances only when a refresh pass makes real progress.
type store struct {
	rates      map[common.Address]*uint256.Int
	lastUpdate time.Time
	interval   time.Duration
	now        func() time.Time
}

func newStore(now func() time.Time) *store {
	return &store{
		rates:    make(map[common.Address]*uint256.Int),
		interval: DefaultPriceUpdateInterval,
		now:      now,
	}
}

// rate returns a copy of the stored rate, or the zero value when none is
// stored. Callers for whom zero is ambiguous must check membership in the
// configured set separately.
func (s *store) rate(token common.Address) *uint256.Int {
	v, ok := s.rates[token]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// setRate overwrites unconditionally; last writer wins.
func (s *store) setRate(token common.Address, v *uint256.Int) {
	s.rates[token] = new(uint256.Int).Set(v)
}

func (s *store) deleteRate(token common.Address) {
	delete(s.rates, token)
}

// stale reports whether the table is older than the configured interval.
// The fixed StalenessPeriod ceiling holds even when the interval is
// misconfigured above it, so callers can rely on the 24h bound without
// reading the interval.
func (s *store) stale() bool {
	age := s.now().Sub(s.lastUpdate)
	return age > s.interval || age > StalenessPeriod
}

// markUpdated records a successful refresh pass.
func (s *store) markUpdated() {
	s.lastUpdate = s.now()
}

func (s *store) setInterval(d time.Duration) {
	s.interval = d
}
