// Package asset models the assets a deposit can be denominated in.
package asset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind distinguishes native coins, ERC20 tokens and fiat currencies.
type Kind uint8

const (
	KindNative Kind = iota + 1
	KindToken
	KindFiat
)

// AssetID identifies an asset in CAIP-19 style:
//
//	eip155:1/native             native coin of chain 1
//	eip155:1/erc20:0xA0b8...    token contract on chain 1
//	iso4217:USD                 fiat currency
type AssetID struct {
	kind    Kind
	chainID uint64
	address common.Address
	code    string
}

func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{kind: KindNative, chainID: chainID}
}

// NewTokenAssetID panics on the zero address; native coins have their own constructor.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("asset: zero token address, use NewNativeAssetID")
	}
	return AssetID{kind: KindToken, chainID: chainID, address: addr}
}

func NewFiatAssetID(code string) AssetID {
	return AssetID{kind: KindFiat, code: strings.ToUpper(code)}
}

// ParseAssetID reads the String form back.
func ParseAssetID(s string) (AssetID, error) {
	if code, ok := strings.CutPrefix(s, "iso4217:"); ok {
		if code == "" {
			return AssetID{}, fmt.Errorf("asset: empty currency code in %q", s)
		}
		return NewFiatAssetID(code), nil
	}

	rest, ok := strings.CutPrefix(s, "eip155:")
	if !ok {
		return AssetID{}, fmt.Errorf("asset: unknown namespace in %q", s)
	}
	chain, ref, ok := strings.Cut(rest, "/")
	if !ok {
		return AssetID{}, fmt.Errorf("asset: missing asset reference in %q", s)
	}
	chainID, err := strconv.ParseUint(chain, 10, 64)
	if err != nil || chainID == 0 {
		return AssetID{}, fmt.Errorf("asset: invalid chain id in %q", s)
	}

	if ref == "native" {
		return NewNativeAssetID(chainID), nil
	}
	addr, ok := strings.CutPrefix(ref, "erc20:")
	if !ok || !common.IsHexAddress(addr) || common.HexToAddress(addr) == (common.Address{}) {
		return AssetID{}, fmt.Errorf("asset: invalid asset reference in %q", s)
	}
	return NewTokenAssetID(chainID, common.HexToAddress(addr)), nil
}

func (id AssetID) Kind() Kind { return id.kind }

// ChainID is zero for fiat.
func (id AssetID) ChainID() uint64 { return id.chainID }

// Address is the token contract, zero for native coins and fiat.
func (id AssetID) Address() common.Address { return id.address }

func (id AssetID) IsNative() bool { return id.kind == KindNative }

func (id AssetID) IsFiat() bool { return id.kind == KindFiat }

func (id AssetID) String() string {
	switch id.kind {
	case KindNative:
		return fmt.Sprintf("eip155:%d/native", id.chainID)
	case KindToken:
		return fmt.Sprintf("eip155:%d/erc20:%s", id.chainID, id.address.Hex())
	case KindFiat:
		return "iso4217:" + id.code
	default:
		return "unknown"
	}
}
