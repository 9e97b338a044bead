// Package marketdata adapts the market module's tickers to ledger decision
// contexts.
package marketdata

import (
	"context"

	ledger "github.com/fd1az/allocation-ledger/business/ledger/domain"
	market "github.com/fd1az/allocation-ledger/business/market/domain"
)

// TickerReader is satisfied by the market service.
type TickerReader interface {
	Ticker(ctx context.Context, symbol string) (market.Ticker, error)
}

// Adapter implements the ledger's MarketContextProvider.
type Adapter struct {
	reader TickerReader
}

func NewAdapter(reader TickerReader) *Adapter {
	return &Adapter{reader: reader}
}

func (a *Adapter) MarketContext(ctx context.Context, symbol string) (ledger.MarketContext, error) {
	t, err := a.reader.Ticker(ctx, symbol)
	if err != nil {
		return ledger.MarketContext{}, err
	}
	return ledger.MarketContext{
		Symbol:      t.Symbol,
		Price:       t.Price,
		ChangeRatio: t.ChangeRatio,
		Source:      t.Source,
		At:          t.At,
	}, nil
}
