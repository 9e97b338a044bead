package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketContext is the market view a decision is taken against. The zero
// value means no market data was available.
type MarketContext struct {
	Symbol      string
	Price       decimal.Decimal
	ChangeRatio decimal.Decimal
	Source      string
	At          time.Time
}

// Available reports whether the context carries a price.
func (m MarketContext) Available() bool {
	return m.Symbol != "" && m.Price.IsPositive()
}
