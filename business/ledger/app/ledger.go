package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/allocation-ledger/business/ledger/domain"
	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

const (
	tracerName = "github.com/fd1az/allocation-ledger/business/ledger"
	meterName  = "github.com/fd1az/allocation-ledger/business/ledger"

	marketTimeout = 2 * time.Second
)

// Config holds ledger settings.
type Config struct {
	Policy       domain.FeePolicy
	NativeAsset  string
	MarketSymbol string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMarket sets the market context source. Without it every decision
// sees an empty context.
func WithMarket(p MarketContextProvider) Option {
	return func(l *Ledger) { l.market = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger owns every investor account and the platform fee total.
// One mutex guards both, so each deposit applies atomically.
type Ledger struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	totalFees decimal.Decimal

	cfg     Config
	decider Decider
	store   AccountStore
	market  MarketContextProvider
	now     func() time.Time

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics ledgerMetrics
}

type ledgerMetrics struct {
	deposits           metric.Int64Counter
	validationFailures metric.Int64Counter
	switches           metric.Int64Counter
	feesCharged        metric.Float64Counter
}

// NewLedger creates an empty ledger. Call Restore to load persisted state.
func NewLedger(cfg Config, decider Decider, store AccountStore, log logger.LoggerInterface, opts ...Option) (*Ledger, error) {
	if decider == nil {
		return nil, fmt.Errorf("ledger: decider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ledger: store is required")
	}
	if cfg.Policy.Rate.IsNegative() {
		return nil, fmt.Errorf("ledger: negative fee rate %s", cfg.Policy.Rate)
	}

	l := &Ledger{
		accounts:  make(map[string]domain.Account),
		totalFees: decimal.Zero,
		cfg:       cfg,
		decider:   decider,
		store:     store,
		now:       time.Now,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.initMetrics(); err != nil {
		return nil, fmt.Errorf("ledger: init metrics: %w", err)
	}
	return l, nil
}

func (l *Ledger) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	l.metrics.deposits, err = meter.Int64Counter(
		"ledger_deposits_total",
		metric.WithDescription("Applied deposits"),
		metric.WithUnit("{deposit}"),
	)
	if err != nil {
		return err
	}

	l.metrics.validationFailures, err = meter.Int64Counter(
		"ledger_validation_failures_total",
		metric.WithDescription("Deposits rejected by validation"),
		metric.WithUnit("{deposit}"),
	)
	if err != nil {
		return err
	}

	l.metrics.switches, err = meter.Int64Counter(
		"ledger_allocation_switches_total",
		metric.WithDescription("Deposits whose decision switched the allocation"),
		metric.WithUnit("{switch}"),
	)
	if err != nil {
		return err
	}

	l.metrics.feesCharged, err = meter.Float64Counter(
		"ledger_fees_charged",
		metric.WithDescription("Platform fees charged on allocation switches"),
	)
	return err
}

// Restore replaces in-memory state with the store's contents.
func (l *Ledger) Restore(ctx context.Context) error {
	accounts, total, err := l.store.Load(ctx)
	if err != nil {
		return apperror.Internal(apperror.CodeStoreFailed, "load ledger state", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		l.accounts[a.Investor] = a
	}
	l.totalFees = total

	l.logger.Info(ctx, "ledger state restored", "accounts", len(accounts), "platform_total_fees", total.String())
	return nil
}

// Deposit credits amount to the investor, runs the allocation decision and
// charges the switch fee when the decision changes the allocation.
// Validation failures and internal faults leave all state untouched.
func (l *Ledger) Deposit(ctx context.Context, req domain.DepositRequest) (result domain.DepositResult, err error) {
	req = req.Normalized()

	ctx, span := l.tracer.Start(ctx, "ledger.deposit",
		trace.WithAttributes(
			attribute.String("investor", req.Investor),
			attribute.String("strategy_id", req.StrategyID),
		),
	)
	defer span.End()

	amount, err := req.Validate(l.cfg.Policy)
	if err != nil {
		l.metrics.validationFailures.Add(ctx, 1)
		span.SetStatus(codes.Error, "validation failed")
		return domain.DepositResult{}, err
	}

	asset := req.Asset
	if asset == "" {
		asset = l.cfg.NativeAsset
	}

	market := l.marketContext(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result = domain.DepositResult{}
			err = apperror.Internal(apperror.CodeInternalError, "deposit for "+req.Investor, fmt.Errorf("panic: %v", r))
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			l.logger.Error(ctx, "deposit panicked", "investor", req.Investor, "panic", fmt.Sprint(r))
		}
	}()

	prev, ok := l.accounts[req.Investor]
	if !ok {
		prev = domain.NewAccount(req.Investor)
	}

	next := prev
	next.Balance = l.cfg.Policy.Round(prev.Balance.Add(amount))

	decision := l.decider.Decide(next.Snapshot(), market)
	if !decision.Valid() {
		err := apperror.Internal(apperror.CodeInternalError, "deposit for "+req.Investor,
			fmt.Errorf("decider returned %q", decision))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid decision")
		return domain.DepositResult{}, err
	}

	fee := decimal.Zero
	total := l.totalFees
	switched := decision != prev.Allocation
	if switched {
		fee = l.cfg.Policy.SwitchFee(next.Balance)
		next.Balance = l.cfg.Policy.Round(next.Balance.Sub(fee))
		total = l.cfg.Policy.Round(total.Add(fee))
	}

	decidedAt := l.now().UTC()
	if decidedAt.Before(prev.LastDecisionAt) {
		decidedAt = prev.LastDecisionAt
	}

	next.Allocation = decision
	next.LastDecisionAt = decidedAt
	next.StrategyID = req.StrategyID

	if err := l.store.SaveDeposit(ctx, next, total); err != nil {
		appErr := apperror.Internal(apperror.CodeStoreFailed, "save deposit for "+req.Investor, err)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, "store failed")
		return domain.DepositResult{}, appErr
	}

	l.accounts[req.Investor] = next
	l.totalFees = total

	attrs := metric.WithAttributes(
		attribute.String("allocation", decision.String()),
		attribute.Bool("switched", switched),
	)
	l.metrics.deposits.Add(ctx, 1, attrs)
	if switched {
		l.metrics.switches.Add(ctx, 1, attrs)
		l.metrics.feesCharged.Add(ctx, fee.InexactFloat64())
	}

	span.SetAttributes(
		attribute.String("allocation", decision.String()),
		attribute.String("fee_charged", fee.String()),
	)
	span.SetStatus(codes.Ok, "applied")

	l.logger.Info(ctx, "deposit applied",
		"investor", req.Investor,
		"strategy_id", req.StrategyID,
		"amount", amount.String(),
		"allocation", decision,
		"fee_charged", fee.String(),
		"new_balance", next.Balance.String(),
	)

	return domain.DepositResult{
		Investor:          req.Investor,
		StrategyID:        req.StrategyID,
		Asset:             asset,
		NewBalance:        next.Balance,
		Allocation:        decision,
		FeeCharged:        fee,
		PlatformTotalFees: total,
		Simulated:         true,
		DecidedAt:         decidedAt,
	}, nil
}

// marketContext fetches the decision context outside the ledger lock.
// Failures degrade to an empty context.
func (l *Ledger) marketContext(ctx context.Context) domain.MarketContext {
	if l.market == nil || l.cfg.MarketSymbol == "" {
		return domain.MarketContext{}
	}

	ctx, cancel := context.WithTimeout(ctx, marketTimeout)
	defer cancel()

	m, err := l.market.MarketContext(ctx, l.cfg.MarketSymbol)
	if err != nil {
		l.logger.Warn(ctx, "market context unavailable, deciding without it",
			"symbol", l.cfg.MarketSymbol, "error", err)
		return domain.MarketContext{}
	}
	return m
}

// Account returns the investor's current account.
func (l *Ledger) Account(investor string) (domain.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[strings.TrimSpace(investor)]
	if !ok {
		return domain.Snapshot{}, apperror.NotFound(apperror.CodeAccountNotFound, investor)
	}
	return a.Snapshot(), nil
}

// Accounts returns every account ordered by investor.
func (l *Ledger) Accounts() []domain.Snapshot {
	l.mu.Lock()
	out := make([]domain.Snapshot, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, a.Snapshot())
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Investor < out[j].Investor })
	return out
}

// TotalFees returns the platform fee total.
func (l *Ledger) TotalFees() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalFees
}

// Ping checks the account store.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}
