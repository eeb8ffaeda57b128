package providers

import (
	"strings"
	"sync"
)

// Registry maps provider types to adapters. Lookup folds the same
// aliases the pricing layer folds, so a provider stored as "azure"
// and one stored as "azure-openai" reach the same adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	fallback Adapter
}

// NewRegistry creates a registry whose unknown-type fallback is the
// given adapter.
func NewRegistry(fallback Adapter) *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		fallback: fallback,
	}
}

// Register binds an adapter to a canonical provider type.
func (r *Registry) Register(providerType string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[canonicalType(providerType)] = adapter
}

// Resolve returns the adapter for a provider type, falling back when
// no adapter is registered.
func (r *Registry) Resolve(providerType string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if adapter, ok := r.adapters[canonicalType(providerType)]; ok {
		return adapter
	}
	return r.fallback
}

func canonicalType(providerType string) string {
	switch strings.ToLower(strings.TrimSpace(providerType)) {
	case "azure", "azure_openai", "azure-openai":
		return "azure-openai"
	case "aws", "bedrock", "aws-bedrock":
		return "aws-bedrock"
	case "google", "gcp", "vertex", "vertex-ai":
		return "vertex-ai"
	case "mock":
		return "mock"
	case "", "openai":
		return "openai"
	default:
		return strings.ToLower(strings.TrimSpace(providerType))
	}
}
