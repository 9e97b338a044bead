// Package app contains the allocation ledger service and its ports.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/business/ledger/domain"
)

// Decider chooses the allocation an account should hold after a deposit.
// Implementations must be pure functions of their inputs and must not block.
type Decider interface {
	Decide(account domain.Snapshot, market domain.MarketContext) domain.Allocation
}

// AccountStore persists accounts and the platform fee total.
type AccountStore interface {
	// Load returns every stored account and the platform fee total.
	Load(ctx context.Context) ([]domain.Account, decimal.Decimal, error)
	// SaveDeposit writes one account and the new fee total atomically.
	SaveDeposit(ctx context.Context, account domain.Account, totalFees decimal.Decimal) error
	Ping(ctx context.Context) error
	Close() error
}

// MarketContextProvider supplies the market view a decision is taken against.
type MarketContextProvider interface {
	MarketContext(ctx context.Context, symbol string) (domain.MarketContext, error)
}
