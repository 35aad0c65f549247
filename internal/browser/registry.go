package browser

import (
	"sort"
	"sync"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// Factory builds a backend from options.
type Factory func(opts Options) Backend

// Registry maps backend types to their factories.
// It provides thread-safe registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[Type]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Type]Factory),
	}
}

// DefaultRegistry returns a registry with the chromedp and rod backends.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeChromedp, func(opts Options) Backend { return NewChromedp(opts) })
	r.Register(TypeRod, func(opts Options) Backend { return NewRod(opts) })
	return r
}

// Register adds a factory for a backend type.
// If a factory already exists for the type, it is replaced.
func (r *Registry) Register(t Type, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = f
}

// New builds a backend of the given type.
// Returns ErrUnknownBackend if no factory is registered for the type.
func (r *Registry) New(t Type, opts Options) (Backend, error) {
	r.mu.RLock()
	f, ok := r.factories[t]
	r.mu.RUnlock()

	if !ok {
		return nil, allyerrors.Detail(allyerrors.ErrUnknownBackend, t)
	}
	return f(opts), nil
}

// Has checks if a factory is registered for the type.
func (r *Registry) Has(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[t]
	return ok
}

// Types returns all registered types, sorted.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]Type, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// New builds a backend of the given type from the default registry.
func New(t Type, opts Options) (Backend, error) {
	return DefaultRegistry().New(t, opts)
}
