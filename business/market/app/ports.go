// Package app contains the market data service and its ports.
package app

import (
	"context"

	"github.com/fd1az/allocation-ledger/business/market/domain"
)

// PriceSource fetches live tickers.
type PriceSource interface {
	Name() string
	Ticker(ctx context.Context, symbol string) (domain.Ticker, error)
}

// HealthReporter is implemented by sources that can report upstream health.
type HealthReporter interface {
	Healthy() (bool, string)
}
