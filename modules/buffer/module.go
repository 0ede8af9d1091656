// Package buffer provides the "buffer" node kind. Its output is declared
// later, so a buffer can close a feedback loop without forming a cycle. A
// reader that already ran in the pass sees the new value on the next pass.
package buffer

import (
	"context"
	"reflect"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config holds the node attributes.
type Config struct {
	Initial float64 `cty:"initial"`
}

// Buffer is the behavior of one buffer node.
type Buffer struct {
	initial float64
	primed  bool
}

// Update copies the input to the output. When the value is unchanged the
// output is cleaned so the loop settles.
func (b *Buffer) Update(_ context.Context, n *graph.Node) error {
	out := n.Output("out")
	if !b.primed {
		b.primed = true
		out.Set(b.initial)
	}
	next := n.Input("in").Get()
	if next == nil {
		next = b.initial
	}
	if reflect.DeepEqual(out.Get(), next) {
		out.Clean()
		return nil
	}
	out.Set(next)
	return nil
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{
		Name:      "buffer",
		Inputs:    []string{"in"},
		Outputs:   []string{"out"},
		Later:     []string{"out"},
		NewConfig: func() any { return new(Config) },
		New: func(cfg any) (graph.Behavior, error) {
			return &Buffer{initial: cfg.(*Config).Initial}, nil
		},
	})
}
