package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/pulsegraph/internal/graph"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Kind describes a node type that graph files can instantiate.
type Kind struct {
	Name    string
	Inputs  []string
	Outputs []string
	// Later lists outputs whose links are deferred.
	Later []string
	// VariadicInputs lets a graph file declare inputs beyond Inputs.
	VariadicInputs bool

	MainThreadOnly bool
	AlwaysDirty    bool

	// NewConfig returns a pointer to a fresh config struct. Extra node
	// attributes are decoded into it through its `cty` tags. Nil means the
	// kind takes no attributes.
	NewConfig func() any
	// New builds the behavior for one node from its decoded config, which is
	// nil when NewConfig is nil.
	New func(config any) (graph.Behavior, error)
}

// Registry holds every registered kind for a single application instance.
type Registry struct {
	kinds map[string]*Kind
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// Use registers every module in order.
func (r *Registry) Use(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// RegisterKind adds a kind. Registering the same name twice is a programming
// error and panics.
func (r *Registry) RegisterKind(k *Kind) {
	if _, exists := r.kinds[k.Name]; exists {
		panic(fmt.Sprintf("node kind '%s' already registered", k.Name))
	}
	slog.Debug("Registering node kind.", "kind", k.Name)
	r.kinds[k.Name] = k
}

// Kind looks a kind up by name.
func (r *Registry) Kind(name string) (*Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec returns the graph.NodeSpec for a node of this kind. extraInputs are
// appended after the declared inputs for variadic kinds.
func (k *Kind) Spec(name string, behavior graph.Behavior, extraInputs ...string) graph.NodeSpec {
	inputs := append([]string(nil), k.Inputs...)
	inputs = append(inputs, extraInputs...)
	return graph.NodeSpec{
		Name:           name,
		Kind:           k.Name,
		Inputs:         inputs,
		Outputs:        append([]string(nil), k.Outputs...),
		Later:          append([]string(nil), k.Later...),
		MainThreadOnly: k.MainThreadOnly,
		AlwaysDirty:    k.AlwaysDirty,
		Behavior:       behavior,
	}
}
