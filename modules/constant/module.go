// Package constant provides the "constant" node kind, which publishes a fixed
// number whenever it is dirty.
package constant

import (
	"context"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config holds the node attributes.
type Config struct {
	Value float64 `cty:"value"`
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{
		Name:      "constant",
		Outputs:   []string{"out"},
		NewConfig: func() any { return new(Config) },
		New: func(cfg any) (graph.Behavior, error) {
			value := cfg.(*Config).Value
			return graph.BehaviorFunc(func(_ context.Context, n *graph.Node) error {
				n.Output("out").Set(value)
				return nil
			}), nil
		},
	})
}
