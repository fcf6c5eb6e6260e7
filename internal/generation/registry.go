package generation

import (
	"sort"
	"sync"

	"personagen/internal/types"
)

// Registry maps provider identifiers to adapters. Adding a provider means
// registering one adapter; nothing else branches on the provider name.
type Registry struct {
	mu         sync.RWMutex
	generators map[types.Provider]types.Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[types.Provider]types.Generator)}
}

// Register adds or replaces the adapter for a provider.
func (r *Registry) Register(provider types.Provider, generator types.Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[provider] = generator
}

// Lookup returns the adapter for a provider. Unknown providers are a caller
// error, not a transport condition.
func (r *Registry) Lookup(provider types.Provider) (types.Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	generator, ok := r.generators[provider]
	if !ok {
		return nil, &types.ValidationError{Reason: "unknown provider: " + string(provider)}
	}
	return generator, nil
}

// Providers returns the registered provider identifiers, sorted.
func (r *Registry) Providers() []types.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]types.Provider, 0, len(r.generators))
	for provider := range r.generators {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}
