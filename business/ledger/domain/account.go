package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Epoch is the decision time of an account that has never decided.
var Epoch = time.Unix(0, 0).UTC()

// Account is an investor's ledger entry.
type Account struct {
	Investor       string
	StrategyID     string
	Balance        decimal.Decimal
	Allocation     Allocation
	LastDecisionAt time.Time
}

// NewAccount returns the initial state of an account created on first deposit.
func NewAccount(investor string) Account {
	return Account{
		Investor:       investor,
		Balance:        decimal.Zero,
		Allocation:     Stable,
		LastDecisionAt: Epoch,
	}
}

// Snapshot is the read-only view of an account handed to deciders and readers.
type Snapshot struct {
	Investor       string
	StrategyID     string
	Balance        decimal.Decimal
	Allocation     Allocation
	LastDecisionAt time.Time
}

// Snapshot copies the account.
func (a Account) Snapshot() Snapshot {
	return Snapshot{
		Investor:       a.Investor,
		StrategyID:     a.StrategyID,
		Balance:        a.Balance,
		Allocation:     a.Allocation,
		LastDecisionAt: a.LastDecisionAt,
	}
}
