// Package dex provides a simulated DEX trade executor.
package dex

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/allocation-ledger/business/strategy/domain"
	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/circuitbreaker"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

const tracerName = "github.com/fd1az/allocation-ledger/business/strategy/infra/dex"

// Config configures the simulated executor.
type Config struct {
	FeeRate   decimal.Decimal
	Precision int32
}

// SimulatedExecutor fills every valid order at the order price. Nothing is
// signed or broadcast; the tx hash only identifies the fill.
type SimulatedExecutor struct {
	cfg     Config
	breaker *circuitbreaker.CircuitBreaker[domain.TradeReceipt]
	now     func() time.Time
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

func NewSimulatedExecutor(cfg Config, log logger.LoggerInterface) *SimulatedExecutor {
	cbCfg := circuitbreaker.DefaultConfig("dex-executor")
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.IsValidation(err)
	}

	return &SimulatedExecutor{
		cfg:     cfg,
		breaker: circuitbreaker.New[domain.TradeReceipt](cbCfg),
		now:     time.Now,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

func (e *SimulatedExecutor) Name() string { return "simulated-dex" }

// Healthy reports the breaker state for the health server.
func (e *SimulatedExecutor) Healthy() (bool, string) {
	if e.breaker.IsOpen() {
		return false, "circuit open"
	}
	return true, e.breaker.State().String()
}

// Execute fills order and charges FeeRate on the notional.
func (e *SimulatedExecutor) Execute(ctx context.Context, order domain.TradeOrder) (domain.TradeReceipt, error) {
	ctx, span := e.tracer.Start(ctx, "dex.execute",
		trace.WithAttributes(
			attribute.String("strategy_id", order.StrategyID),
			attribute.String("symbol", order.Symbol),
			attribute.String("side", string(order.Side)),
		),
	)
	defer span.End()

	if err := order.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid order")
		return domain.TradeReceipt{}, err
	}

	receipt, err := e.breaker.Execute(func() (domain.TradeReceipt, error) {
		return e.fill(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution failed")
		if circuitbreaker.IsRejection(err) {
			return domain.TradeReceipt{}, apperror.New(apperror.CodeCircuitOpen,
				apperror.WithContext(e.breaker.Name()), apperror.WithCause(err))
		}
		return domain.TradeReceipt{}, apperror.Wrap(err, apperror.CodeTradeExecutionFailed, "execute "+order.StrategyID)
	}

	span.SetAttributes(attribute.String("tx_hash", receipt.TxHash))
	span.SetStatus(codes.Ok, "filled")
	return receipt, nil
}

func (e *SimulatedExecutor) fill(ctx context.Context, order domain.TradeOrder) (domain.TradeReceipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.TradeReceipt{}, err
	}

	tradeID := uuid.NewString()
	hash := crypto.Keccak256Hash(
		[]byte(tradeID),
		[]byte(order.StrategyID),
		[]byte(order.Symbol),
		[]byte(order.Side),
		[]byte(order.Amount.String()),
		[]byte(order.Price.String()),
	)
	fee := order.Notional().Mul(e.cfg.FeeRate).Round(e.cfg.Precision)

	e.logger.Debug(ctx, "simulated fill", "trade_id", tradeID, "tx_hash", hash.Hex(), "fee", fee.String())

	return domain.TradeReceipt{
		TradeID:    tradeID,
		TxHash:     hash.Hex(),
		StrategyID: order.StrategyID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Amount:     order.Amount,
		Price:      order.Price,
		Fee:        fee,
		Simulated:  true,
		ExecutedAt: e.now().UTC(),
	}, nil
}
