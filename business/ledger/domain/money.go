package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimal places every money value keeps.
const DefaultPrecision int32 = 8

// DefaultFeeRate is charged on the post-deposit balance when the allocation switches.
var DefaultFeeRate = decimal.RequireFromString("0.005")

// FeePolicy rounds money values and prices allocation switches.
// decimal.Round rounds half away from zero, which equals half-up for the
// non-negative values the ledger handles.
type FeePolicy struct {
	Rate      decimal.Decimal
	Precision int32
}

// DefaultFeePolicy is 0.5% at 8 decimal places.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{Rate: DefaultFeeRate, Precision: DefaultPrecision}
}

// Round rounds d to the policy precision.
func (p FeePolicy) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Precision)
}

// SwitchFee is the fee charged on balance when the allocation changes.
func (p FeePolicy) SwitchFee(balance decimal.Decimal) decimal.Decimal {
	return p.Round(balance.Mul(p.Rate))
}
