package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/allocation-ledger/business/market/domain"
	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

type countingSource struct {
	calls int
	price decimal.Decimal
	err   error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Ticker(_ context.Context, symbol string) (domain.Ticker, error) {
	s.calls++
	if s.err != nil {
		return domain.Ticker{}, s.err
	}
	return domain.Ticker{Symbol: symbol, Price: s.price, Source: "counting", At: time.Now()}, nil
}

func TestMarketService_CachesPerSymbol(t *testing.T) {
	src := &countingSource{price: decimal.NewFromInt(3400)}
	svc, err := NewMarketService(src, time.Minute, logger.Nop())
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tk, err := svc.Ticker(ctx, "ethusdc")
		require.NoError(t, err)
		assert.Equal(t, "ETHUSDC", tk.Symbol)
	}
	assert.Equal(t, 1, src.calls)

	_, err = svc.Ticker(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestMarketService_NoCache(t *testing.T) {
	src := &countingSource{price: decimal.NewFromInt(1)}
	svc, err := NewMarketService(src, 0, logger.Nop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Ticker(context.Background(), "X")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)
	healthy, _ := svc.Healthy()
	assert.True(t, healthy)
}

func TestMarketService_Errors(t *testing.T) {
	ctx := context.Background()

	svc, err := NewMarketService(&countingSource{err: errors.New("connection reset")}, time.Minute, logger.Nop())
	require.NoError(t, err)
	_, err = svc.Ticker(ctx, "ETHUSDC")
	assert.Equal(t, apperror.CodeMarketDataFailed, apperror.GetCode(err))
	assert.False(t, apperror.IsInternal(err), "upstream failures surface as 503")

	_, err = svc.Ticker(ctx, "  ")
	assert.True(t, apperror.IsValidation(err))

	svc, err = NewMarketService(&countingSource{price: decimal.Zero}, time.Minute, logger.Nop())
	require.NoError(t, err)
	_, err = svc.Ticker(ctx, "ETHUSDC")
	assert.Equal(t, apperror.CodeInvalidTicker, apperror.GetCode(err))
}
