package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Native(t *testing.T) {
	r := DefaultRegistry()

	eth, err := r.Native("eth")
	require.NoError(t, err)
	assert.Equal(t, "ETH", eth.Symbol())
	assert.True(t, eth.ID().IsNative())
	assert.Equal(t, "eip155:1/native", eth.ID().String())

	byID, err := r.Native("eip155:137/native")
	require.NoError(t, err)
	assert.Equal(t, "MATIC", byID.Symbol())

	_, err = r.Native("USDC")
	assert.Error(t, err, "tokens are not native coins")

	_, err = r.Native("DOGE")
	assert.Error(t, err)

	_, err = r.Native("eip155:10/native")
	assert.Error(t, err, "valid id, not registered")
}

func TestRegistry_RegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(ETH)
	assert.Panics(t, func() { r.Register(ETH) })
	assert.Panics(t, func() { r.Register(nil) })
	assert.Equal(t, 1, r.Count())
}

func TestAssetID_Kinds(t *testing.T) {
	assert.True(t, USD.ID().IsFiat())
	assert.Equal(t, "iso4217:USD", USD.ID().String())
	assert.Equal(t, KindToken, USDC.ID().Kind())
	assert.Equal(t, AddrUSDCEthereum, USDC.ID().Address())
	assert.Panics(t, func() { NewTokenAssetID(1, [20]byte{}) })
}

func TestParseAssetID_RoundTrip(t *testing.T) {
	for _, a := range []*Asset{ETH, MATIC, USDC, WETH, USD} {
		id, err := ParseAssetID(a.ID().String())
		require.NoError(t, err, a.Symbol())
		assert.Equal(t, a.ID(), id)
	}
}

func TestParseAssetID_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"ETH",
		"iso4217:",
		"eip155:1",
		"eip155:0/native",
		"eip155:x/native",
		"eip155:1/erc20:nothex",
		"eip155:1/erc20:0x0000000000000000000000000000000000000000",
		"cosmos:hub/native",
	} {
		_, err := ParseAssetID(s)
		assert.Error(t, err, s)
	}
}

func TestDefaultRegistry_SymbolPrefersMainnet(t *testing.T) {
	r := DefaultRegistry()

	a, ok := r.BySymbol("ETH")
	require.True(t, ok)
	assert.Equal(t, uint64(ChainIDEthereum), a.ChainID())

	base, err := r.Native("eip155:8453/native")
	require.NoError(t, err)
	assert.Same(t, ETHBase, base)
	assert.Equal(t, 8, r.Count())
}
