// Package memory is the volatile account store. State lives only as long as
// the process.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/business/ledger/domain"
)

// Store keeps accounts in a map.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	totalFees decimal.Decimal
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{accounts: make(map[string]domain.Account)}
}

func (s *Store) Load(_ context.Context) ([]domain.Account, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out, s.totalFees, nil
}

func (s *Store) SaveDeposit(ctx context.Context, account domain.Account, totalFees decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.accounts[account.Investor] = account
	s.totalFees = totalFees
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
