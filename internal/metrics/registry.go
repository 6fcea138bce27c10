package metrics

import (
	"fmt"
)

// Registry maps categories to computers and remembers registration order.
// Register before sharing a Registry; lookups are safe for concurrent use
// once registration is finished.
type Registry struct {
	order     []Category
	computers map[Category]Computer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{computers: make(map[Category]Computer)}
}

// DefaultRegistry returns a registry holding the eleven built-in computers
// in declaration order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Computer{
		NewCompletenessComputer(),
		NewForeignObjectsComputer(),
		NewSharpnessComputer(),
		NewExposureComputer(),
		NewContrastComputer(),
		NewColorComputer(),
		NewGeometryComputer(),
		NewBorderBackgroundComputer(),
		NewNoiseComputer(),
		NewFormatIntegrityComputer(),
		NewResolutionComputer(),
	} {
		r.MustRegister(c)
	}
	return r
}

// Register adds c. Registering a category twice is an error.
func (r *Registry) Register(c Computer) error {
	cat := c.Category()
	if cat == "" {
		return fmt.Errorf("computer has no category")
	}
	if _, exists := r.computers[cat]; exists {
		return fmt.Errorf("computer for %q already registered", cat)
	}
	r.computers[cat] = c
	r.order = append(r.order, cat)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(c Computer) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the computer for cat.
func (r *Registry) Get(cat Category) (Computer, bool) {
	c, ok := r.computers[cat]
	return c, ok
}

// Categories returns registered categories in registration order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.order))
	copy(out, r.order)
	return out
}

// Computers returns registered computers in registration order.
func (r *Registry) Computers() []Computer {
	out := make([]Computer, 0, len(r.order))
	for _, cat := range r.order {
		out = append(out, r.computers[cat])
	}
	return out
}

// Len returns the number of registered computers.
func (r *Registry) Len() int {
	return len(r.order)
}
