package evaluator

import (
	"fmt"
	"sort"
	"sync"

	"yqhp/fractal-engine/pkg/types"
)

const (
	// KindMandelbrot names the Mandelbrot escape-time evaluator.
	KindMandelbrot = "mandelbrot"
	// KindNewton names the Newton basin evaluator for z³ - 1.
	KindNewton = "newton"
)

// Factory builds an evaluator from its spec.
type Factory func(spec types.FractalSpec) (PointEvaluator, error)

// Registry maps fractal kinds to factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry holding the built-in evaluators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(KindMandelbrot, func(spec types.FractalSpec) (PointEvaluator, error) {
		return NewMandelbrot(spec.MaxIter), nil
	})
	r.MustRegister(KindNewton, func(spec types.FractalSpec) (PointEvaluator, error) {
		return NewNewton(spec.MaxIter, spec.Epsilon), nil
	})
	return r
}

// Register adds a factory under kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("evaluator kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("evaluator factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("evaluator already registered: %s", kind)
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister registers a factory and panics on error.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds the evaluator described by spec.
func (r *Registry) New(spec types.FractalSpec) (PointEvaluator, error) {
	if spec.MaxIter <= 0 {
		return nil, fmt.Errorf("max_iter must be positive, got %d", spec.MaxIter)
	}

	r.mu.RLock()
	factory, ok := r.factories[spec.Kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown fractal kind: %s", spec.Kind)
	}
	return factory(spec)
}
