// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/allocation-ledger/business/market/app"
	"github.com/fd1az/allocation-ledger/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketService = di.NewToken[*app.MarketService]("market.MarketService")
)

// Private dependency tokens - internal to market module
var (
	PriceSource = di.NewToken[app.PriceSource]("market:priceSource")
)

func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetPriceSource(c di.ServiceRegistry) app.PriceSource {
	return di.GetToken(c, PriceSource)
}
