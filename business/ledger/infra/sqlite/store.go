// Package sqlite is the durable account store backed by modernc.org/sqlite
// (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fd1az/allocation-ledger/business/ledger/domain"
)

// Money is stored as decimal text so no precision is lost.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    investor         TEXT PRIMARY KEY,
    strategy_id      TEXT    NOT NULL,
    balance          TEXT    NOT NULL,
    allocation       TEXT    NOT NULL,
    last_decision_at INTEGER NOT NULL
);

-- Single row holding the platform fee total
CREATE TABLE IF NOT EXISTS platform_fees (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    total      TEXT    NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Store persists accounts in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps :memory: on one connection
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns every account and the fee total.
func (s *Store) Load(ctx context.Context) ([]domain.Account, decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT investor, strategy_id, balance, allocation, last_decision_at FROM accounts ORDER BY investor`)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("sqlite.Load: query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var (
			a          domain.Account
			balance    string
			allocation string
			decidedAt  int64
		)
		if err := rows.Scan(&a.Investor, &a.StrategyID, &balance, &allocation, &decidedAt); err != nil {
			return nil, decimal.Zero, fmt.Errorf("sqlite.Load: scan: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, decimal.Zero, fmt.Errorf("sqlite.Load: balance of %s: %w", a.Investor, err)
		}
		if a.Allocation, err = domain.ParseAllocation(allocation); err != nil {
			return nil, decimal.Zero, fmt.Errorf("sqlite.Load: allocation of %s: %w", a.Investor, err)
		}
		a.LastDecisionAt = time.Unix(0, decidedAt).UTC()
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, decimal.Zero, fmt.Errorf("sqlite.Load: rows: %w", err)
	}

	total := decimal.Zero
	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT total FROM platform_fees WHERE id = 1`).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, decimal.Zero, fmt.Errorf("sqlite.Load: fee total: %w", err)
	default:
		if total, err = decimal.NewFromString(raw); err != nil {
			return nil, decimal.Zero, fmt.Errorf("sqlite.Load: parse fee total: %w", err)
		}
	}

	return accounts, total, nil
}

// SaveDeposit upserts the account and the fee total in one transaction.
func (s *Store) SaveDeposit(ctx context.Context, a domain.Account, totalFees decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite.SaveDeposit: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (investor, strategy_id, balance, allocation, last_decision_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(investor) DO UPDATE SET
			strategy_id      = excluded.strategy_id,
			balance          = excluded.balance,
			allocation       = excluded.allocation,
			last_decision_at = excluded.last_decision_at`,
		a.Investor, a.StrategyID, a.Balance.String(), string(a.Allocation), a.LastDecisionAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("sqlite.SaveDeposit: upsert account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO platform_fees (id, total, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET total = excluded.total, updated_at = excluded.updated_at`,
		totalFees.String(), time.Now().UTC().UnixNano(),
	); err != nil {
		return fmt.Errorf("sqlite.SaveDeposit: upsert fee total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite.SaveDeposit: commit: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
