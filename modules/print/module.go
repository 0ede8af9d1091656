// Package print provides the "print" sink, which writes its input to the
// module's writer every time the input changes.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
)

// Module implements the registry.Module interface for this package. Out
// defaults to os.Stdout.
type Module struct {
	Out io.Writer
}

// Config holds the node attributes.
type Config struct {
	Label string `cty:"label"`
}

// Printer is the behavior of one print node.
type Printer struct {
	label string
	mu    *sync.Mutex
	out   io.Writer
}

// Update prints "label = value". An unset input prints as (null).
func (p *Printer) Update(ctx context.Context, n *graph.Node) error {
	label := p.label
	if label == "" {
		label = n.Name
	}
	v := n.Input("in").Get()
	ctxlog.FromContext(ctx).Info("Printing input", "label", label, "value", v)

	p.mu.Lock()
	defer p.mu.Unlock()
	if v == nil {
		_, err := fmt.Fprintf(p.out, "%s = (null)\n", label)
		return err
	}
	_, err := fmt.Fprintf(p.out, "%s = %v\n", label, v)
	return err
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	// Print nodes may run concurrently; lines must not interleave.
	mu := new(sync.Mutex)
	r.RegisterKind(&registry.Kind{
		Name:      "print",
		Inputs:    []string{"in"},
		NewConfig: func() any { return new(Config) },
		New: func(cfg any) (graph.Behavior, error) {
			return &Printer{label: cfg.(*Config).Label, mu: mu, out: out}, nil
		},
	})
}
