// Package sum provides the "sum" node kind. It adds every numeric input and
// accepts any number of extra inputs declared in the graph file.
package sum

import (
	"context"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config holds the node attributes.
type Config struct {
	Bias float64 `cty:"bias"`
}

// Sum is the behavior of one sum node.
type Sum struct {
	bias float64
}

// Update writes bias plus the sum of all numeric inputs. Unset inputs count
// as zero.
func (s *Sum) Update(_ context.Context, n *graph.Node) error {
	total := s.bias
	g := n.Graph()
	for _, id := range n.Inputs() {
		p, err := g.Port(id)
		if err != nil {
			return err
		}
		if v, ok := registry.Float(p.Get()); ok {
			total += v
		}
	}
	n.Output("out").Set(total)
	return nil
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{
		Name:           "sum",
		Outputs:        []string{"out"},
		VariadicInputs: true,
		NewConfig:      func() any { return new(Config) },
		New: func(cfg any) (graph.Behavior, error) {
			return &Sum{bias: cfg.(*Config).Bias}, nil
		},
	})
}
