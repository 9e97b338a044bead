// Package ledger implements the allocation ledger bounded context.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/allocation-ledger/business/ledger/app"
	ledgerDI "github.com/fd1az/allocation-ledger/business/ledger/di"
	"github.com/fd1az/allocation-ledger/business/ledger/domain"
	"github.com/fd1az/allocation-ledger/business/ledger/infra/marketdata"
	"github.com/fd1az/allocation-ledger/business/ledger/infra/memory"
	"github.com/fd1az/allocation-ledger/business/ledger/infra/rest"
	"github.com/fd1az/allocation-ledger/business/ledger/infra/sqlite"
	marketDI "github.com/fd1az/allocation-ledger/business/market/di"
	"github.com/fd1az/allocation-ledger/internal/asset"
	"github.com/fd1az/allocation-ledger/internal/config"
	"github.com/fd1az/allocation-ledger/internal/di"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/monolith"
)

// Module implements the ledger bounded context. It depends on the market
// module's public MarketService, so market must be registered first.
type Module struct {
	store app.AccountStore
}

// RegisterServices registers the store, decider and ledger.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, ledgerDI.AccountStore, func(sr di.ServiceRegistry) app.AccountStore {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)

		if cfg.Store.Driver == "sqlite" {
			store, err := sqlite.Open(cfg.Store.SQLitePath)
			if err != nil {
				panic("failed to open sqlite store: " + err.Error())
			}
			return store
		}
		return memory.NewStore()
	})

	di.RegisterToken(c, ledgerDI.Decider, func(sr di.ServiceRegistry) app.Decider {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)

		if cfg.Ledger.Decider == "momentum" {
			return app.MomentumDecider{Threshold: cfg.Ledger.MomentumThresholdDecimal()}
		}
		seed := cfg.Ledger.RandomSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return app.NewRandomDecider(seed)
	})

	di.RegisterToken(c, ledgerDI.Ledger, func(sr di.ServiceRegistry) *app.Ledger {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		assets := sr.Get(monolith.AssetRegistryService).(*asset.Registry)

		native, err := assets.Native(cfg.Ledger.NativeAsset)
		if err != nil {
			panic("invalid ledger.native_asset: " + err.Error())
		}

		l, err := app.NewLedger(app.Config{
			Policy: domain.FeePolicy{
				Rate:      cfg.Ledger.FeeRateDecimal(),
				Precision: cfg.Ledger.Precision,
			},
			NativeAsset:  native.Symbol(),
			MarketSymbol: cfg.Ledger.MarketSymbol,
		},
			ledgerDI.GetDecider(sr),
			ledgerDI.GetAccountStore(sr),
			log,
			app.WithMarket(marketdata.NewAdapter(marketDI.GetMarketService(sr))),
		)
		if err != nil {
			panic("failed to create ledger: " + err.Error())
		}
		return l
	})

	return nil
}

// Startup restores persisted state, mounts the HTTP handlers and registers
// the store health check.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	l := ledgerDI.GetLedger(mono.Services())
	m.store = ledgerDI.GetAccountStore(mono.Services())

	if err := l.Restore(ctx); err != nil {
		return fmt.Errorf("ledger startup: %w", err)
	}

	rest.NewHandler(l, log).RegisterRoutes(mono.Router())

	mono.Health().RegisterCheck("store", func(ctx context.Context) (bool, string) {
		if err := l.Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, mono.Config().Store.Driver
	})

	log.Info(ctx, "ledger module started",
		"store", mono.Config().Store.Driver,
		"decider", mono.Config().Ledger.Decider,
		"fee_rate", mono.Config().Ledger.FeeRateDecimal().String())
	return nil
}

// Close closes the account store.
func (m *Module) Close(context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}
