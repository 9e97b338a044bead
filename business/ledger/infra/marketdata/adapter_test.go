package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	market "github.com/fd1az/allocation-ledger/business/market/domain"
)

type readerFunc func(ctx context.Context, symbol string) (market.Ticker, error)

func (f readerFunc) Ticker(ctx context.Context, symbol string) (market.Ticker, error) {
	return f(ctx, symbol)
}

func TestAdapter_MapsTicker(t *testing.T) {
	a := NewAdapter(readerFunc(func(_ context.Context, symbol string) (market.Ticker, error) {
		return market.Ticker{Symbol: symbol, Price: decimal.NewFromInt(3400), ChangeRatio: decimal.RequireFromString("0.01"), Source: "mock"}, nil
	}))

	mc, err := a.MarketContext(context.Background(), "ETHUSDC")
	require.NoError(t, err)
	assert.True(t, mc.Available())
	assert.Equal(t, "0.01", mc.ChangeRatio.String())
	assert.Equal(t, "mock", mc.Source)
}

func TestAdapter_PropagatesErrors(t *testing.T) {
	boom := errors.New("down")
	a := NewAdapter(readerFunc(func(context.Context, string) (market.Ticker, error) { return market.Ticker{}, boom }))

	_, err := a.MarketContext(context.Background(), "ETHUSDC")
	assert.ErrorIs(t, err, boom)
}
