package asset

import (
	"fmt"
	"strings"
	"sync"
)

// Registry indexes assets by id and by upper-cased symbol. A symbol may
// name assets on several chains; lookups by symbol return the first one
// registered.
type Registry struct {
	mu       sync.RWMutex
	byID     map[AssetID]*Asset
	bySymbol map[string][]*Asset
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[AssetID]*Asset),
		bySymbol: make(map[string][]*Asset),
	}
}

// Register panics on nil or an already registered id. Registration happens
// at startup, so a conflict is a programming error.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: register nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byID[a.ID()]; dup {
		panic(fmt.Sprintf("asset: %s registered twice", a.ID()))
	}
	r.byID[a.ID()] = a
	sym := strings.ToUpper(a.Symbol())
	r.bySymbol[sym] = append(r.bySymbol[sym], a)
}

func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// BySymbol is case-insensitive.
func (r *Registry) BySymbol(symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if list := r.bySymbol[strings.ToUpper(symbol)]; len(list) > 0 {
		return list[0], true
	}
	return nil, false
}

// Resolve accepts either a symbol or an asset id string.
func (r *Registry) Resolve(ref string) (*Asset, error) {
	if a, ok := r.BySymbol(ref); ok {
		return a, nil
	}
	id, err := ParseAssetID(ref)
	if err != nil {
		return nil, fmt.Errorf("asset: unknown asset %q", ref)
	}
	if a, ok := r.Get(id); ok {
		return a, nil
	}
	return nil, fmt.Errorf("asset: %s not registered", id)
}

// Native resolves ref and requires a native coin, the only kind a
// deposit defaults to.
func (r *Registry) Native(ref string) (*Asset, error) {
	a, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if !a.IsNative() {
		return nil, fmt.Errorf("asset: %s is not a native coin", a.Symbol())
	}
	return a, nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
