// Package market implements the market data bounded context.
package market

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/business/market/app"
	marketDI "github.com/fd1az/allocation-ledger/business/market/di"
	"github.com/fd1az/allocation-ledger/business/market/infra/binance"
	"github.com/fd1az/allocation-ledger/business/market/infra/mock"
	"github.com/fd1az/allocation-ledger/business/market/infra/rest"
	"github.com/fd1az/allocation-ledger/internal/config"
	"github.com/fd1az/allocation-ledger/internal/di"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/monolith"
)

// Module implements the market bounded context.
type Module struct {
	svc *app.MarketService
}

// RegisterServices registers the price source and market service.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.PriceSource, func(sr di.ServiceRegistry) app.PriceSource {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		switch cfg.Market.Provider {
		case "binance":
			src, err := binance.NewSource(binance.Config{
				BaseURL:           cfg.Market.BaseURL,
				Timeout:           cfg.Market.Timeout,
				RequestsPerMinute: cfg.Market.RequestsPerMinute,
			}, log)
			if err != nil {
				panic("failed to create binance source: " + err.Error())
			}
			return src
		default:
			return mock.NewSource(mock.Config{
				StartPrice: decimal.NewFromFloat(cfg.Market.MockStartPrice),
				Volatility: cfg.Market.MockVolatility,
				Seed:       cfg.Market.MockSeed,
			})
		}
	})

	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		svc, err := app.NewMarketService(marketDI.GetPriceSource(sr), cfg.Market.CacheTTL, log)
		if err != nil {
			panic("failed to create market service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup mounts the ticker endpoint and the market health check.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := marketDI.GetMarketService(mono.Services())
	m.svc = svc

	rest.NewHandler(svc, mono.Logger()).RegisterRoutes(mono.Router())

	mono.Health().RegisterCheck("market", func(context.Context) (bool, string) {
		return svc.Healthy()
	})

	mono.Logger().Info(ctx, "market module started",
		"provider", svc.Source().Name(),
		"cache_ttl", mono.Config().Market.CacheTTL.String())
	return nil
}

// Close stops the ticker cache.
func (m *Module) Close(context.Context) error {
	if m.svc != nil {
		m.svc.Close()
	}
	return nil
}
