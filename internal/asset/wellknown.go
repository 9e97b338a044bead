package asset

import "github.com/ethereum/go-ethereum/common"

const (
	ChainIDEthereum = 1
	ChainIDPolygon  = 137
	ChainIDArbitrum = 42161
	ChainIDBase     = 8453
)

// Mainnet token contracts.
var (
	AddrUSDCEthereum = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDTEthereum = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrWETHEthereum = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

var (
	ETH         = NewAsset(NewNativeAssetID(ChainIDEthereum), "ETH", "Ethereum", 18)
	ETHArbitrum = NewAsset(NewNativeAssetID(ChainIDArbitrum), "ETH", "Ethereum on Arbitrum", 18)
	ETHBase     = NewAsset(NewNativeAssetID(ChainIDBase), "ETH", "Ethereum on Base", 18)
	MATIC       = NewAsset(NewNativeAssetID(ChainIDPolygon), "MATIC", "Polygon", 18)

	USDC = NewAsset(NewTokenAssetID(ChainIDEthereum, AddrUSDCEthereum), "USDC", "USD Coin", 6)
	USDT = NewAsset(NewTokenAssetID(ChainIDEthereum, AddrUSDTEthereum), "USDT", "Tether USD", 6)
	WETH = NewAsset(NewTokenAssetID(ChainIDEthereum, AddrWETHEthereum), "WETH", "Wrapped Ether", 18)

	USD = NewAsset(NewFiatAssetID("USD"), "USD", "US Dollar", 2)
)

// DefaultRegistry holds every asset above. Mainnet ETH is registered
// first, so the bare symbol "ETH" resolves to it.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{ETH, ETHArbitrum, ETHBase, MATIC, USDC, USDT, WETH, USD} {
		r.Register(a)
	}
	return r
}
