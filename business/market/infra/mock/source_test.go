package mock

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_DeterministicPerSeed(t *testing.T) {
	cfg := Config{StartPrice: decimal.NewFromInt(3400), Volatility: 0.01, Seed: 7}
	a, b := NewSource(cfg), NewSource(cfg)

	for i := 0; i < 20; i++ {
		ta, err := a.Ticker(context.Background(), "ETHUSDC")
		require.NoError(t, err)
		tb, err := b.Ticker(context.Background(), "ETHUSDC")
		require.NoError(t, err)
		assert.True(t, ta.Price.Equal(tb.Price))
	}
}

func TestSource_StepsStayWithinVolatility(t *testing.T) {
	s := NewSource(Config{StartPrice: decimal.NewFromInt(100), Volatility: 0.05, Seed: 1})
	bound := decimal.NewFromFloat(0.0500001)

	for i := 0; i < 200; i++ {
		tk, err := s.Ticker(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.True(t, tk.Price.IsPositive())
		assert.True(t, tk.ChangeRatio.Abs().LessThan(bound), "step %s", tk.ChangeRatio)
		assert.Equal(t, "mock", tk.Source)
	}
}

func TestSource_ZeroVolatilityIsFlat(t *testing.T) {
	s := NewSource(Config{StartPrice: decimal.NewFromInt(10)})
	tk, err := s.Ticker(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "10", tk.Price.String())
	assert.True(t, tk.ChangeRatio.IsZero())
}
