package node

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds a node from its configuration and collaborators.
type Constructor func(cfg Config, deps Deps) (Node, error)

// Registry maps node type names to constructors. Names are
// case-insensitive.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry holding the built-in JIRA node types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, ctor := range map[string]Constructor{
		TypeIssueGet:      NewIssueGet,
		TypeIssueCreate:   NewIssueCreate,
		TypeIssueUpdate:   NewIssueUpdate,
		TypeCommentAdd:    NewCommentAdd,
		TypeCommentUpdate: NewCommentUpdate,
		TypeSearch:        NewSearch,
	} {
		// Names are distinct constants; registration cannot fail.
		_ = r.Register(name, ctor)
	}
	return r
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" {
		return fmt.Errorf("registry: node type name required")
	}
	if ctor == nil {
		return fmt.Errorf("registry: constructor for %s required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := r.types[key]; exists {
		return fmt.Errorf("registry: node type %s already registered", name)
	}
	r.types[key] = ctor
	return nil
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, ok := r.types[strings.ToLower(name)]
	return ctor, ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs the node described by cfg.
func (r *Registry) Build(cfg Config, deps Deps) (Node, error) {
	ctor, ok := r.Lookup(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("unknown node type %q for node %s", cfg.Type, cfg.ID)
	}
	n, err := ctor(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("building node %s: %w", cfg.ID, err)
	}
	return n, nil
}
