package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/allocation-ledger/business/ledger/app"
	"github.com/fd1az/allocation-ledger/business/ledger/domain"
	"github.com/fd1az/allocation-ledger/business/ledger/infra/memory"
	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultConfig() app.Config {
	return app.Config{
		Policy:       domain.DefaultFeePolicy(),
		NativeAsset:  "ETH",
		MarketSymbol: "ETHUSDC",
	}
}

func newLedger(t *testing.T, decider app.Decider, store app.AccountStore, opts ...app.Option) *app.Ledger {
	t.Helper()
	if store == nil {
		store = memory.NewStore()
	}
	l, err := app.NewLedger(defaultConfig(), decider, store, logger.Nop(), opts...)
	require.NoError(t, err)
	return l
}

// sequence returns the given allocations in order, then repeats the last.
func sequence(allocs ...domain.Allocation) app.Decider {
	var mu sync.Mutex
	i := 0
	return app.DeciderFunc(func(domain.Snapshot, domain.MarketContext) domain.Allocation {
		mu.Lock()
		defer mu.Unlock()
		a := allocs[min(i, len(allocs)-1)]
		i++
		return a
	})
}

func deposit(investor, strategy, amount string) domain.DepositRequest {
	return domain.DepositRequest{Investor: investor, StrategyID: strategy, Amount: d(amount)}
}

func TestDeposit_SwitchThenHold(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, app.FixedDecider(domain.Invested), nil)

	first, err := l.Deposit(ctx, deposit("inv1", "s1", "1000"))
	require.NoError(t, err)
	assert.Equal(t, "5", first.FeeCharged.String())
	assert.Equal(t, "995", first.NewBalance.String())
	assert.Equal(t, domain.Invested, first.Allocation)
	assert.Equal(t, "5", first.PlatformTotalFees.String())
	assert.Equal(t, "ETH", first.Asset)
	assert.True(t, first.Simulated)

	second, err := l.Deposit(ctx, deposit("inv1", "s1", "500"))
	require.NoError(t, err)
	assert.True(t, second.FeeCharged.IsZero())
	assert.Equal(t, "1495", second.NewBalance.String())
	assert.Equal(t, domain.Invested, second.Allocation)
	assert.Equal(t, "5", second.PlatformTotalFees.String())
}

func TestDeposit_StableDecisionOnNewAccountIsFree(t *testing.T) {
	l := newLedger(t, app.FixedDecider(domain.Stable), nil)

	res, err := l.Deposit(context.Background(), deposit("inv1", "s1", "250.5"))
	require.NoError(t, err)
	assert.True(t, res.FeeCharged.IsZero())
	assert.Equal(t, "250.5", res.NewBalance.String())
	assert.True(t, l.TotalFees().IsZero())
}

func TestDeposit_ConservationAndAccumulator(t *testing.T) {
	ctx := context.Background()
	decider := sequence(domain.Invested, domain.Stable, domain.Stable, domain.Invested, domain.Invested, domain.Stable)
	l := newLedger(t, decider, nil)

	amounts := []string{"100", "0.12345678", "33.3", "1e2", "7", "0.00000001"}
	deposits, fees := decimal.Zero, decimal.Zero
	lastTotal := decimal.Zero

	for _, a := range amounts {
		res, err := l.Deposit(ctx, deposit("inv1", "s1", a))
		require.NoError(t, err)

		deposits = deposits.Add(d(a))
		fees = fees.Add(res.FeeCharged)

		assert.False(t, res.NewBalance.IsNegative())
		assert.True(t, res.PlatformTotalFees.GreaterThanOrEqual(lastTotal), "accumulator never decreases")
		lastTotal = res.PlatformTotalFees
	}

	acct, err := l.Account("inv1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(deposits.Sub(fees)), "balance %s != %s", acct.Balance, deposits.Sub(fees))
	assert.True(t, l.TotalFees().Equal(fees))
}

func TestDeposit_FeeOnlyOnSwitch(t *testing.T) {
	ctx := context.Background()
	policy := domain.DefaultFeePolicy()
	l := newLedger(t, sequence(domain.Stable, domain.Invested, domain.Invested, domain.Stable), nil)

	prevAlloc := domain.Stable
	balance := decimal.Zero
	for _, amount := range []string{"10", "20.5", "3", "0.9"} {
		res, err := l.Deposit(ctx, deposit("inv1", "s1", amount))
		require.NoError(t, err)

		postDeposit := policy.Round(balance.Add(d(amount)))
		if res.Allocation == prevAlloc {
			assert.True(t, res.FeeCharged.IsZero())
		} else {
			assert.True(t, res.FeeCharged.Equal(policy.SwitchFee(postDeposit)))
		}
		prevAlloc = res.Allocation
		balance = res.NewBalance
	}
}

func TestDeposit_RoundsHalfUpAtEightPlaces(t *testing.T) {
	l := newLedger(t, app.FixedDecider(domain.Invested), nil)

	// 0.000001 * 0.005 = 0.000000005 -> 0.00000001
	res, err := l.Deposit(context.Background(), deposit("inv1", "s1", "0.000001"))
	require.NoError(t, err)
	assert.Equal(t, "0.00000001", res.FeeCharged.String())
	assert.Equal(t, "0.00000099", res.NewBalance.String())

	// amounts are rounded on entry
	res, err = l.Deposit(context.Background(), deposit("inv1", "s1", "0.000000015"))
	require.NoError(t, err)
	assert.Equal(t, "0.00000101", res.NewBalance.String())
}

func TestDeposit_ValidationLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	calls := 0
	decider := app.DeciderFunc(func(domain.Snapshot, domain.MarketContext) domain.Allocation {
		calls++
		return domain.Invested
	})
	l := newLedger(t, decider, nil)

	_, err := l.Deposit(ctx, deposit("inv1", "s1", "100"))
	require.NoError(t, err)
	before, err := l.Account("inv1")
	require.NoError(t, err)
	feesBefore := l.TotalFees()

	bad := []domain.DepositRequest{
		deposit("", "s1", "100"),
		deposit("inv1", "", "100"),
		deposit("inv1", "s1", "0"),
		deposit("inv1", "s1", "-10"),
	}
	for _, req := range bad {
		_, err := l.Deposit(ctx, req)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	}

	after, err := l.Account("inv1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, l.TotalFees().Equal(feesBefore))
	assert.Equal(t, 1, calls, "decider is not consulted for invalid input")

	_, err = l.Account("")
	assert.ErrorIs(t, err, apperror.New(apperror.CodeAccountNotFound))
}

func TestDeposit_LastDecisionAtNeverDecreases(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	l := newLedger(t, app.FixedDecider(domain.Stable), nil, app.WithClock(clock))

	_, err := l.Deposit(ctx, deposit("inv1", "s1", "1"))
	require.NoError(t, err)

	now = now.Add(-time.Hour) // clock steps backwards
	res, err := l.Deposit(ctx, deposit("inv1", "s1", "1"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), res.DecidedAt)

	now = now.Add(2 * time.Hour)
	res, err = l.Deposit(ctx, deposit("inv1", "s1", "1"))
	require.NoError(t, err)
	assert.Equal(t, now, res.DecidedAt)
}

func TestDeposit_StrategyIDLastWriteWins(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, app.FixedDecider(domain.Stable), nil)

	_, err := l.Deposit(ctx, deposit("inv1", "s1", "1"))
	require.NoError(t, err)
	res, err := l.Deposit(ctx, domain.DepositRequest{Investor: "inv1", StrategyID: "s2", Amount: d("1"), Asset: "USDC"})
	require.NoError(t, err)
	assert.Equal(t, "USDC", res.Asset)

	acct, err := l.Account("inv1")
	require.NoError(t, err)
	assert.Equal(t, "s2", acct.StrategyID)
}

type failingStore struct {
	*memory.Store
	fail bool
}

func (s *failingStore) SaveDeposit(ctx context.Context, a domain.Account, total decimal.Decimal) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.SaveDeposit(ctx, a, total)
}

func TestDeposit_StoreFailureIsInternalAndAtomic(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.NewStore()}
	l := newLedger(t, sequence(domain.Stable, domain.Invested), store)

	_, err := l.Deposit(ctx, deposit("inv1", "s1", "100"))
	require.NoError(t, err)

	store.fail = true
	_, err = l.Deposit(ctx, deposit("inv1", "s1", "900"))
	require.Error(t, err)
	assert.True(t, apperror.IsInternal(err))
	assert.Equal(t, apperror.CodeStoreFailed, apperror.GetCode(err))

	acct, err := l.Account("inv1")
	require.NoError(t, err)
	assert.Equal(t, "100", acct.Balance.String())
	assert.Equal(t, domain.Stable, acct.Allocation)
	assert.True(t, l.TotalFees().IsZero())
}

func TestDeposit_DeciderPanicIsRecovered(t *testing.T) {
	l := newLedger(t, app.DeciderFunc(func(domain.Snapshot, domain.MarketContext) domain.Allocation {
		panic("model exploded")
	}), nil)

	_, err := l.Deposit(context.Background(), deposit("inv1", "s1", "100"))
	require.Error(t, err)
	assert.True(t, apperror.IsInternal(err))
	assert.Equal(t, "An unexpected error occurred", apperror.Wrap(err, apperror.CodeInternalError, "").ToResponse().Message)

	_, err = l.Account("inv1")
	assert.Error(t, err, "no account is created by a failed deposit")

	// the ledger is still usable afterwards
	assert.True(t, l.TotalFees().IsZero())
}

func TestDeposit_InvalidDecisionIsInternal(t *testing.T) {
	l := newLedger(t, app.FixedDecider("MAYBE"), nil)

	_, err := l.Deposit(context.Background(), deposit("inv1", "s1", "100"))
	assert.True(t, apperror.IsInternal(err))
}

func TestDeposit_ConcurrentInvestorsLoseNoFees(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, app.NewRandomDecider(42), nil)

	const investors, perInvestor = 16, 50

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		charged = decimal.Zero
	)
	for i := 0; i < investors; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < perInvestor; j++ {
				res, err := l.Deposit(ctx, deposit(id, "s1", "10"))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				charged = charged.Add(res.FeeCharged)
				mu.Unlock()
			}
		}(fmt.Sprintf("inv%d", i))
	}
	wg.Wait()

	assert.True(t, l.TotalFees().Equal(charged), "total %s != sum %s", l.TotalFees(), charged)

	sum := decimal.Zero
	for _, acct := range l.Accounts() {
		sum = sum.Add(acct.Balance)
	}
	deposited := decimal.NewFromInt(investors * perInvestor * 10)
	assert.True(t, sum.Add(charged).Equal(deposited))
	assert.Len(t, l.Accounts(), investors)
}

type stubMarket struct {
	ctx domain.MarketContext
	err error
}

func (s stubMarket) MarketContext(context.Context, string) (domain.MarketContext, error) {
	return s.ctx, s.err
}

func TestDeposit_MarketContextReachesDecider(t *testing.T) {
	up := domain.MarketContext{Symbol: "ETHUSDC", Price: d("3400"), ChangeRatio: d("0.02")}
	l := newLedger(t, app.MomentumDecider{Threshold: d("0.01")}, nil, app.WithMarket(stubMarket{ctx: up}))

	res, err := l.Deposit(context.Background(), deposit("inv1", "s1", "100"))
	require.NoError(t, err)
	assert.Equal(t, domain.Invested, res.Allocation)
}

func TestDeposit_MarketFailureDegradesToEmptyContext(t *testing.T) {
	var seen domain.MarketContext
	decider := app.DeciderFunc(func(_ domain.Snapshot, m domain.MarketContext) domain.Allocation {
		seen = m
		return domain.Stable
	})
	l := newLedger(t, decider, nil, app.WithMarket(stubMarket{err: errors.New("upstream down")}))

	_, err := l.Deposit(context.Background(), deposit("inv1", "s1", "100"))
	require.NoError(t, err)
	assert.False(t, seen.Available())
}

func TestRestore_LoadsStoreState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first := newLedger(t, app.FixedDecider(domain.Invested), store)
	_, err := first.Deposit(ctx, deposit("inv1", "s1", "1000"))
	require.NoError(t, err)

	second := newLedger(t, app.FixedDecider(domain.Invested), store)
	require.NoError(t, second.Restore(ctx))

	acct, err := second.Account("inv1")
	require.NoError(t, err)
	assert.Equal(t, "995", acct.Balance.String())
	assert.Equal(t, "5", second.TotalFees().String())
	assert.NoError(t, second.Ping(ctx))
}

func TestNewLedger_RequiresCollaborators(t *testing.T) {
	_, err := app.NewLedger(defaultConfig(), nil, memory.NewStore(), logger.Nop())
	assert.Error(t, err)

	_, err = app.NewLedger(defaultConfig(), app.FixedDecider(domain.Stable), nil, logger.Nop())
	assert.Error(t, err)
}
