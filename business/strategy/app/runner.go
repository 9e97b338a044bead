package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/allocation-ledger/business/strategy/domain"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

const (
	tracerName = "github.com/fd1az/allocation-ledger/business/strategy"
	meterName  = "github.com/fd1az/allocation-ledger/business/strategy"
)

// RunnerConfig holds execution loop settings.
type RunnerConfig struct {
	// Schedule is a cron expression; descriptors such as "@every 30s" are accepted.
	Schedule  string
	Symbol    string
	TradeSize decimal.Decimal
}

// TickResult summarizes one pass over the active strategies.
type TickResult struct {
	Active  int
	Trades  int
	Skipped int
	Failed  int
}

// Runner periodically trades every ACTIVE strategy on the market's
// direction.
type Runner struct {
	cfg      RunnerConfig
	registry *Registry
	market   TickerReader
	executor Executor

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics runnerMetrics
}

type runnerMetrics struct {
	ticks  metric.Int64Counter
	trades metric.Int64Counter
}

// NewRunner validates cfg and creates a stopped runner.
func NewRunner(cfg RunnerConfig, registry *Registry, market TickerReader, executor Executor, log logger.LoggerInterface) (*Runner, error) {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("runner: invalid schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("runner: symbol is required")
	}
	if !cfg.TradeSize.IsPositive() {
		return nil, fmt.Errorf("runner: trade size must be positive, got %s", cfg.TradeSize)
	}

	r := &Runner{
		cfg:      cfg,
		registry: registry,
		market:   market,
		executor: executor,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("runner: init metrics: %w", err)
	}
	return r, nil
}

func (r *Runner) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	r.metrics.ticks, err = meter.Int64Counter(
		"strategy_ticks_total",
		metric.WithDescription("Execution loop passes"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return err
	}

	r.metrics.trades, err = meter.Int64Counter(
		"strategy_trades_total",
		metric.WithDescription("Trades submitted by the execution loop"),
		metric.WithUnit("{trade}"),
	)
	return err
}

// Start schedules the loop. Ticks stop when ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return fmt.Errorf("runner: already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{ctx: runCtx, log: r.logger}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := c.AddFunc(r.cfg.Schedule, func() { r.Tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("runner: register tick: %w", err)
	}

	c.Start()
	r.cron = c
	r.cancel = cancel

	r.logger.Info(ctx, "strategy runner started",
		"schedule", r.cfg.Schedule,
		"symbol", r.cfg.Symbol,
		"trade_size", r.cfg.TradeSize.String(),
		"executor", r.executor.Name())
	return nil
}

// Stop halts scheduling and waits for a running tick, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if c == nil {
		return nil
	}

	cancel()
	select {
	case <-c.Stop().Done():
		r.logger.Info(ctx, "strategy runner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick trades every ACTIVE strategy once. A flat market or a failing
// strategy never aborts the pass.
func (r *Runner) Tick(ctx context.Context) TickResult {
	ctx, span := r.tracer.Start(ctx, "strategy.tick",
		trace.WithAttributes(attribute.String("symbol", r.cfg.Symbol)))
	defer span.End()

	var res TickResult
	ids := r.registry.Active()
	res.Active = len(ids)

	outcome := "ok"
	defer func() {
		r.metrics.ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		span.SetAttributes(
			attribute.Int("active", res.Active),
			attribute.Int("trades", res.Trades),
			attribute.Int("failed", res.Failed),
		)
	}()

	if len(ids) == 0 {
		outcome = "idle"
		return res
	}

	ticker, err := r.market.Ticker(ctx, r.cfg.Symbol)
	if err != nil {
		outcome = "market_error"
		res.Skipped = len(ids)
		span.RecordError(err)
		span.SetStatus(codes.Error, "market data unavailable")
		r.logger.Warn(ctx, "tick skipped, market data unavailable", "symbol", r.cfg.Symbol, "error", err)
		return res
	}

	side, ok := domain.SideFor(ticker.ChangeRatio)
	if !ok {
		outcome = "flat"
		res.Skipped = len(ids)
		r.logger.Debug(ctx, "tick skipped, flat market", "symbol", ticker.Symbol, "price", ticker.Price.String())
		return res
	}

	for _, id := range ids {
		// paused since the snapshot was taken
		if s, err := r.registry.Status(id); err != nil || s.Status != domain.StatusActive {
			res.Skipped++
			continue
		}

		order := domain.TradeOrder{
			StrategyID: id,
			Symbol:     ticker.Symbol,
			Side:       side,
			Amount:     r.cfg.TradeSize,
			Price:      ticker.Price,
		}

		receipt, err := r.executor.Execute(ctx, order)
		if err != nil {
			res.Failed++
			r.metrics.trades.Add(ctx, 1, metric.WithAttributes(
				attribute.String("side", string(side)),
				attribute.String("outcome", "failed"),
			))
			r.logger.Error(ctx, "trade failed", "strategy_id", id, "side", side, "error", err)
			continue
		}

		res.Trades++
		r.metrics.trades.Add(ctx, 1, metric.WithAttributes(
			attribute.String("side", string(side)),
			attribute.String("outcome", "filled"),
		))
		r.logger.Info(ctx, "trade executed",
			"strategy_id", id,
			"trade_id", receipt.TradeID,
			"tx_hash", receipt.TxHash,
			"side", receipt.Side,
			"amount", receipt.Amount.String(),
			"price", receipt.Price.String(),
			"fee", receipt.Fee.String(),
			"simulated", receipt.Simulated)
	}

	if res.Failed > 0 {
		outcome = "partial"
		span.SetStatus(codes.Error, "some trades failed")
	} else {
		span.SetStatus(codes.Ok, "tick complete")
	}
	return res
}

// cronLogger adapts the project logger to cron's Logger.
type cronLogger struct {
	ctx context.Context
	log logger.LoggerInterface
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(l.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}
