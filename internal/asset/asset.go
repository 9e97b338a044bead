package asset

// Asset is the metadata of a crypto or fiat asset. Identity is the AssetID,
// the symbol is display metadata.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAsset creates a new Asset with the given parameters.
func NewAsset(id AssetID, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{id: id, symbol: symbol, name: name, decimals: decimals}
}

func (a *Asset) ID() AssetID     { return a.id }
func (a *Asset) Symbol() string  { return a.symbol }
func (a *Asset) Decimals() uint8 { return a.decimals }
func (a *Asset) IsNative() bool  { return a.id.IsNative() }
func (a *Asset) String() string  { return a.symbol }
func (a *Asset) ChainID() uint64 { return a.id.ChainID() }

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}
