// Package strategy implements the strategy bounded context: the status
// registry, the execution loop and the simulated executor.
package strategy

import (
	"context"
	"fmt"

	marketDI "github.com/fd1az/allocation-ledger/business/market/di"
	"github.com/fd1az/allocation-ledger/business/strategy/app"
	strategyDI "github.com/fd1az/allocation-ledger/business/strategy/di"
	"github.com/fd1az/allocation-ledger/business/strategy/infra/dex"
	"github.com/fd1az/allocation-ledger/business/strategy/infra/rest"
	"github.com/fd1az/allocation-ledger/internal/config"
	"github.com/fd1az/allocation-ledger/internal/di"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/monolith"
)

// Module implements the strategy bounded context. The runner reads
// tickers from the market module.
type Module struct {
	runner *app.Runner
}

// RegisterServices registers the registry, executor and runner.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, strategyDI.Registry, func(sr di.ServiceRegistry) *app.Registry {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		return app.NewRegistry(log, cfg.Strategy.SeedIDs...)
	})

	di.RegisterToken(c, strategyDI.Executor, func(sr di.ServiceRegistry) *dex.SimulatedExecutor {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		return dex.NewSimulatedExecutor(dex.Config{
			FeeRate:   cfg.Ledger.FeeRateDecimal(),
			Precision: cfg.Ledger.Precision,
		}, log)
	})

	di.RegisterToken(c, strategyDI.Runner, func(sr di.ServiceRegistry) *app.Runner {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		r, err := app.NewRunner(app.RunnerConfig{
			Schedule:  cfg.Strategy.Schedule,
			Symbol:    cfg.Strategy.Symbol,
			TradeSize: cfg.Strategy.TradeSizeDecimal(),
		},
			strategyDI.GetRegistry(sr),
			marketDI.GetMarketService(sr),
			strategyDI.GetExecutor(sr),
			log,
		)
		if err != nil {
			panic("failed to create strategy runner: " + err.Error())
		}
		return r
	})

	return nil
}

// Startup mounts the strategy endpoints and, when enabled, starts the runner.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	registry := strategyDI.GetRegistry(mono.Services())
	executor := strategyDI.GetExecutor(mono.Services())

	rest.NewHandler(registry, mono.Logger()).RegisterRoutes(mono.Router())

	mono.Health().RegisterCheck("executor", func(context.Context) (bool, string) {
		return executor.Healthy()
	})

	if !mono.Config().Strategy.RunnerEnabled {
		mono.Logger().Info(ctx, "strategy module started, runner disabled", "strategies", len(registry.List()))
		return nil
	}

	runner := strategyDI.GetRunner(mono.Services())
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("strategy startup: %w", err)
	}
	m.runner = runner

	mono.Logger().Info(ctx, "strategy module started", "strategies", len(registry.List()))
	return nil
}

// Close stops the runner.
func (m *Module) Close(ctx context.Context) error {
	if m.runner == nil {
		return nil
	}
	return m.runner.Stop(ctx)
}
