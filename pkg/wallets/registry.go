package wallets

import (
	"fmt"
	"strings"
	"sync"
)

// Registry manages wallet adapters keyed by wallet name. Keys are
// case-insensitive.
type Registry struct {
	adapters map[string]Adapter
	mu       sync.RWMutex
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// NewRegistry builds an isolated registry. Tests use this to avoid sharing
// the process-wide instance.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// InitGlobalRegistry initializes the process-wide registry on first use.
func InitGlobalRegistry() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// GetGlobalRegistry returns the process-wide registry (nil if not initialized).
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register registers an adapter under its own name. Re-registering the same
// name replaces the previous adapter (idempotent).
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[strings.ToLower(adapter.Name())] = adapter
	return nil
}

// Get retrieves an adapter by wallet name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("no wallet adapter registered for: %s", name)
	}

	return adapter, nil
}

// AvailableWallets returns all registered wallet names.
func (r *Registry) AvailableWallets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a wallet name has an adapter.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adapters[strings.ToLower(name)]
	return exists
}

// Unregister removes an adapter (useful for testing).
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.adapters, strings.ToLower(name))
}

// ResetGlobalRegistry resets the process-wide registry (useful for testing).
func ResetGlobalRegistry() {
	globalRegistry = nil
	globalRegistryOnce = sync.Once{}
}
