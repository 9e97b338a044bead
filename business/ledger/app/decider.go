package app

import (
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/business/ledger/domain"
)

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(domain.Snapshot, domain.MarketContext) domain.Allocation

func (f DeciderFunc) Decide(a domain.Snapshot, m domain.MarketContext) domain.Allocation {
	return f(a, m)
}

// FixedDecider always returns the same allocation.
type FixedDecider domain.Allocation

func (f FixedDecider) Decide(domain.Snapshot, domain.MarketContext) domain.Allocation {
	return domain.Allocation(f)
}

// RandomDecider draws a signal uniformly from [-1, 1) and invests when it
// is positive. It ignores both the account and the market.
type RandomDecider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDecider creates a RandomDecider with a deterministic seed.
func NewRandomDecider(seed uint64) *RandomDecider {
	return &RandomDecider{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Signal returns the next raw signal in [-1, 1).
func (r *RandomDecider) Signal() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()*2 - 1
}

func (r *RandomDecider) Decide(domain.Snapshot, domain.MarketContext) domain.Allocation {
	if r.Signal() > 0 {
		return domain.Invested
	}
	return domain.Stable
}

// MomentumDecider invests while the market's change ratio exceeds
// Threshold and stays stable otherwise, including when no market data is
// available.
type MomentumDecider struct {
	Threshold decimal.Decimal
}

func (m MomentumDecider) Decide(_ domain.Snapshot, market domain.MarketContext) domain.Allocation {
	if !market.Available() {
		return domain.Stable
	}
	if market.ChangeRatio.GreaterThan(m.Threshold) {
		return domain.Invested
	}
	return domain.Stable
}
