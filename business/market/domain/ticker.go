// Package domain contains market data types.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/internal/apperror"
)

// Ticker is the latest price of a trading pair.
type Ticker struct {
	Symbol string
	Price  decimal.Decimal
	// ChangeRatio is the relative price change over the source's window
	// (0.01 means +1%).
	ChangeRatio decimal.Decimal
	Source      string
	At          time.Time
}

// NormalizeSymbol upper-cases and trims a pair symbol such as "ethusdc".
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Validate rejects tickers that cannot be priced against.
func (t Ticker) Validate() error {
	if t.Symbol == "" {
		return apperror.New(apperror.CodeInvalidTicker, apperror.WithContext("missing symbol"))
	}
	if !t.Price.IsPositive() {
		return apperror.New(apperror.CodeInvalidTicker,
			apperror.WithContext(t.Symbol+": non-positive price "+t.Price.String()))
	}
	return nil
}
