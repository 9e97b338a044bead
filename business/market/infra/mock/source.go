// Package mock is a deterministic random-walk price source for simulations.
package mock

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/business/market/domain"
)

const precision = 8

// Config configures a Source.
type Config struct {
	StartPrice decimal.Decimal
	// Volatility bounds each step's relative move: the price changes by a
	// uniform factor in [-Volatility, Volatility).
	Volatility float64
	Seed       uint64
}

// Source walks one price per symbol. Every call advances the walk.
type Source struct {
	mu     sync.Mutex
	cfg    Config
	rng    *rand.Rand
	prices map[string]decimal.Decimal
	now    func() time.Time
}

// NewSource creates a Source.
func NewSource(cfg Config) *Source {
	if !cfg.StartPrice.IsPositive() {
		cfg.StartPrice = decimal.NewFromInt(1)
	}
	if cfg.Volatility < 0 {
		cfg.Volatility = -cfg.Volatility
	}
	return &Source{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1)),
		prices: make(map[string]decimal.Decimal),
		now:    time.Now,
	}
}

func (s *Source) Name() string { return "mock" }

func (s *Source) Ticker(_ context.Context, symbol string) (domain.Ticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.prices[symbol]
	if !ok {
		prev = s.cfg.StartPrice
	}

	step := decimal.NewFromFloat((s.rng.Float64()*2 - 1) * s.cfg.Volatility)
	next := prev.Mul(decimal.NewFromInt(1).Add(step)).Round(precision)
	if !next.IsPositive() {
		next = prev
	}
	s.prices[symbol] = next

	return domain.Ticker{
		Symbol:      symbol,
		Price:       next,
		ChangeRatio: next.Sub(prev).Div(prev).Round(precision),
		Source:      s.Name(),
		At:          s.now().UTC(),
	}, nil
}
