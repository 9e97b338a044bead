package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/internal/apperror"
)

// Side is the trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// SideFor maps a market change ratio to a trade side. A flat market
// yields no trade.
func SideFor(changeRatio decimal.Decimal) (Side, bool) {
	switch changeRatio.Sign() {
	case 1:
		return SideBuy, true
	case -1:
		return SideSell, true
	default:
		return "", false
	}
}

// TradeOrder is a request to the executor.
type TradeOrder struct {
	StrategyID string
	Symbol     string
	Side       Side
	Amount     decimal.Decimal
	Price      decimal.Decimal
}

// Validate checks the order before it reaches an executor.
func (o TradeOrder) Validate() error {
	if err := ValidateID(o.StrategyID); err != nil {
		return err
	}
	if o.Symbol == "" {
		return apperror.Validation(apperror.CodeRequiredField, "symbol is required")
	}
	if !o.Side.Valid() {
		return apperror.Validation(apperror.CodeInvalidInput, "side must be BUY or SELL")
	}
	if !o.Amount.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidAmount, "trade amount must be greater than 0")
	}
	if !o.Price.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidAmount, "trade price must be greater than 0")
	}
	return nil
}

// Notional is amount times price.
func (o TradeOrder) Notional() decimal.Decimal {
	return o.Amount.Mul(o.Price)
}

// TradeReceipt is the executor's record of a fill.
type TradeReceipt struct {
	TradeID    string
	TxHash     string
	StrategyID string
	Symbol     string
	Side       Side
	Amount     decimal.Decimal
	Price      decimal.Decimal
	Fee        decimal.Decimal
	Simulated  bool
	ExecutedAt time.Time
}
