// Package registry decouples which capture backend and dedup strategy are
// active from the pipeline code that uses them. Registration happens once
// at startup through an explicit call; lookups happen continuously.
package registry

import (
	"fmt"
	"sync"

	"github.com/snapdeck/snapdeck/internal/capture"
	"github.com/snapdeck/snapdeck/internal/domain/strategy"
)

// BackendFactory builds a fresh capture backend instance.
type BackendFactory func() capture.Backend

// StrategyFactory builds a fresh dedup strategy instance.
type StrategyFactory func() strategy.Strategy

// Registry is a name to factory lookup for backends and strategies.
// Read-heavy and write-rare, so a RWMutex guards both tables.
type Registry struct {
	mu            sync.RWMutex
	backends      map[string]BackendFactory
	backendOrder  []string
	strategies    map[string]StrategyFactory
	strategyOrder []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		backends:   map[string]BackendFactory{},
		strategies: map[string]StrategyFactory{},
	}
}

// RegisterBackend registers a capture backend factory. Re-registration
// overwrites the factory but keeps the name's original position in the
// listing order.
func (r *Registry) RegisterBackend(name string, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[name]; !exists {
		r.backendOrder = append(r.backendOrder, name)
	}
	r.backends[name] = factory
}

// RegisterStrategy registers a dedup strategy factory. Last registration
// for a name wins.
func (r *Registry) RegisterStrategy(name string, factory StrategyFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[name]; !exists {
		r.strategyOrder = append(r.strategyOrder, name)
	}
	r.strategies[name] = factory
}

// Backend returns the factory for name, or ErrBackendNotFound. The caller
// decides whether absence is fatal.
func (r *Registry) Backend(name string) (BackendFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, name)
	}
	return f, nil
}

// Strategy returns the factory for name, or ErrStrategyNotFound.
func (r *Registry) Strategy(name string) (StrategyFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
	}
	return f, nil
}

// ListBackends returns registered backend names in registration order.
func (r *Registry) ListBackends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.backendOrder))
	copy(out, r.backendOrder)
	return out
}

// ListStrategies returns registered strategy names in registration order.
func (r *Registry) ListStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.strategyOrder))
	copy(out, r.strategyOrder)
	return out
}

// Reset drops all registrations. Intended for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = map[string]BackendFactory{}
	r.backendOrder = nil
	r.strategies = map[string]StrategyFactory{}
	r.strategyOrder = nil
}
