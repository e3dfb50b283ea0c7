package transform

import (
	"errors"
	"fmt"
	"sort"
)

// Factory builds one Transform from its parameters.
type Factory func(p Params) (Transform, error)

// Registry maps transform type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var (
	errDuplicateType = errors.New("duplicate transform type")

	// ErrUnknownType is returned by Build for an unregistered type.
	ErrUnknownType = errors.New("unknown transform type")
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given transform type.
func (r *Registry) Register(typ string, factory Factory) error {
	if typ == "" {
		return errors.New("empty transform type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[typ]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, typ)
	}

	r.factories[typ] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typ string, factory Factory) {
	if err := r.Register(typ, factory); err != nil {
		panic("transform registry: " + err.Error())
	}
}

// Lookup returns the factory for the given type, or nil.
func (r *Registry) Lookup(typ string) Factory {
	return r.factories[typ]
}

// Types lists the registered type names in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs a transform of type p.Type.
func (r *Registry) Build(p Params) (Transform, error) {
	f := r.Lookup(p.Type)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	t, err := f(p)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", p.Type, err)
	}
	return t, nil
}
