package grammar

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds named grammars.
// It provides thread-safe access so extra grammars can be registered at
// startup without touching the analyzer.
type Registry struct {
	mu       sync.RWMutex
	grammars map[string]*Grammar
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		grammars: make(map[string]*Grammar),
	}
}

// NewBuiltinRegistry creates a registry holding the built-in grammars.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, b := range builtinPatterns {
		if err := r.Register(MustNew(b.name, b.pattern)); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a grammar to the registry.
// If a grammar with the same name already exists, it will be overwritten.
func (r *Registry) Register(g *Grammar) error {
	if g == nil {
		return fmt.Errorf("cannot register nil grammar")
	}
	if g.name == "" {
		return fmt.Errorf("grammar name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.grammars[g.name] = g
	return nil
}

// Get retrieves a grammar by name.
// Returns nil and false if the name is not registered.
func (r *Registry) Get(name string) (*Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.grammars[name]
	return g, ok
}

// Has checks if a grammar name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all registered grammar names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.grammars))
	for name := range r.grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set builds an ordered Set from the named grammars.
// The order of names is the match priority.
func (r *Registry) Set(names ...string) (*Set, error) {
	grammars := make([]*Grammar, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("grammar %q listed twice", name)
		}
		seen[name] = true

		g, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown grammar: %q (registered: %v)", name, r.List())
		}
		grammars = append(grammars, g)
	}

	if len(grammars) == 0 {
		return nil, fmt.Errorf("grammar set cannot be empty")
	}

	return NewSet(grammars...), nil
}
