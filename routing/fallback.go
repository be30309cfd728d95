package routing

import "sync"

// Fallbacks maps a primary handler name to an ordered list of alternates
// tried when the primary is unavailable. It is pure data: chains are set
// explicitly by the owning application and never validated against the
// registry. An alternate that does not resolve to a registered, enabled,
// matching handler is skipped at route time.
type Fallbacks struct {
	mu     sync.RWMutex
	chains map[string][]string
}

// NewFallbacks creates an empty fallback chain resolver.
func NewFallbacks() *Fallbacks {
	return &Fallbacks{chains: make(map[string][]string)}
}

// SetChain installs the fallback chain for primary, replacing any existing
// chain. An empty alternates list removes the chain.
func (f *Fallbacks) SetChain(primary string, alternates []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(alternates) == 0 {
		delete(f.chains, primary)
		return
	}
	f.chains[primary] = append([]string(nil), alternates...)
}

// Chain returns the fallback chain for primary, or nil if none is set.
func (f *Fallbacks) Chain(primary string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	chain, ok := f.chains[primary]
	if !ok {
		return nil
	}
	return append([]string(nil), chain...)
}

// Chains returns a snapshot of all configured chains.
func (f *Fallbacks) Chains() map[string][]string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string][]string, len(f.chains))
	for primary, chain := range f.chains {
		out[primary] = append([]string(nil), chain...)
	}
	return out
}
