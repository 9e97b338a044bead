// Package app contains application services and port definitions for the strategy context.
package app

import (
	"context"

	market "github.com/fd1az/allocation-ledger/business/market/domain"
	"github.com/fd1az/allocation-ledger/business/strategy/domain"
)

// TickerReader supplies the market data a tick trades on.
type TickerReader interface {
	Ticker(ctx context.Context, symbol string) (market.Ticker, error)
}

// Executor fills trade orders.
type Executor interface {
	Name() string
	Execute(ctx context.Context, order domain.TradeOrder) (domain.TradeReceipt, error)
}
