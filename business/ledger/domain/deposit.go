package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/internal/apperror"
)

// Validation messages, reported one at a time in field order.
const (
	MsgInvestorRequired = "investor is required"
	MsgStrategyRequired = "strategyId is required"
	MsgAmountRequired   = "amount is required"
	MsgAmountNotNumber  = "amount must be a number"
	MsgAmountPositive   = "amount must be a finite number greater than 0"
	MsgAmountTooLarge   = "amount must be less than 1e18"
)

// MaxAmountDigits bounds the integer digits of a deposit amount. Checked
// before any arithmetic, so an exponent like 1e10000000 never gets expanded.
const MaxAmountDigits = 18

// DepositRequest is a validated-on-entry deposit.
type DepositRequest struct {
	Investor   string
	StrategyID string
	Amount     decimal.Decimal
	// Asset defaults to the native asset when empty.
	Asset string
}

// Normalized returns r with surrounding whitespace removed from the ids,
// so " inv1" and "inv1" address the same account.
func (r DepositRequest) Normalized() DepositRequest {
	r.Investor = strings.TrimSpace(r.Investor)
	r.StrategyID = strings.TrimSpace(r.StrategyID)
	r.Asset = strings.TrimSpace(r.Asset)
	return r
}

// ValidateParties checks the investor and strategy fields.
func (r DepositRequest) ValidateParties() error {
	if strings.TrimSpace(r.Investor) == "" {
		return apperror.Validation(apperror.CodeRequiredField, MsgInvestorRequired)
	}
	if strings.TrimSpace(r.StrategyID) == "" {
		return apperror.Validation(apperror.CodeRequiredField, MsgStrategyRequired)
	}
	return nil
}

// Validate returns the first violated constraint and the amount rounded
// to the policy precision. Amounts that round to zero are rejected.
func (r DepositRequest) Validate(p FeePolicy) (decimal.Decimal, error) {
	if err := r.ValidateParties(); err != nil {
		return decimal.Zero, err
	}
	if !r.Amount.IsPositive() {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidAmount, MsgAmountPositive)
	}

	// The value lies below 10^mag.
	mag := int64(r.Amount.NumDigits()) + int64(r.Amount.Exponent())
	if mag > MaxAmountDigits {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidAmount, MsgAmountTooLarge)
	}
	if mag < -int64(p.Precision) {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidAmount, MsgAmountPositive)
	}

	amount := p.Round(r.Amount)
	if !amount.IsPositive() {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidAmount, MsgAmountPositive)
	}
	return amount, nil
}

// ParseAmount reads a JSON amount. Only JSON numbers are accepted; quoted
// strings, booleans, null and missing values are rejected. JSON has no
// NaN or Infinity, so any parsed number is finite.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, apperror.Validation(apperror.CodeRequiredField, MsgAmountRequired)
	}

	var n json.Number
	if raw[0] == '"' || json.Unmarshal(raw, &n) != nil {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidAmount, MsgAmountNotNumber)
	}

	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidAmount, MsgAmountNotNumber)
	}
	return d, nil
}

// DepositResult is returned for every applied deposit.
type DepositResult struct {
	Investor          string
	StrategyID        string
	Asset             string
	NewBalance        decimal.Decimal
	Allocation        Allocation
	FeeCharged        decimal.Decimal
	PlatformTotalFees decimal.Decimal
	Simulated         bool
	DecidedAt         time.Time
}
