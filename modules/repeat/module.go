// Package repeat provides the "repeat" node kind. A repeat node drives the
// subtree docked on its "iter" output several times within one pass, feeding
// the iteration index through "iter" and waiting for the subtree to finish
// before the next iteration.
package repeat

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
)

// ErrCount is returned for a negative iteration count.
var ErrCount = errors.New("repeat count must not be negative")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config holds the node attributes.
type Config struct {
	Count int `cty:"count"`
}

// Repeat is the behavior of one repeat node.
type Repeat struct {
	count int
}

// Update runs the docked subtree once per iteration. The "count" input, when
// set, overrides the configured count. Outside a scheduler pass only the
// outputs are written.
func (r *Repeat) Update(ctx context.Context, n *graph.Node) error {
	count := r.count
	if v, ok := registry.Float(n.Input("count").Get()); ok {
		count = int(v)
	}
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrCount, count)
	}

	logger := ctxlog.FromContext(ctx)
	rt := scheduler.FromContext(ctx)
	iter := n.Output("iter")
	for i := range count {
		iter.Set(float64(i))
		if rt == nil {
			continue
		}
		if err := rt.SetDataDirty(iter.ID()); err != nil {
			return fmt.Errorf("staging iteration %d: %w", i, err)
		}
		if err := rt.SetDataReady(iter.ID()); err != nil {
			return fmt.Errorf("releasing iteration %d: %w", i, err)
		}
		rt.WaitForOtherTasks()
		logger.Debug("Iteration finished.", "iteration", i)
	}
	// Every iteration already ran; nothing is left for the deferred edge.
	iter.Clean()
	n.Output("iterations").Set(float64(count))
	return nil
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{
		Name:      "repeat",
		Inputs:    []string{"count"},
		Outputs:   []string{"iter", "iterations"},
		Later:     []string{"iter"},
		NewConfig: func() any { return &Config{Count: 1} },
		New: func(cfg any) (graph.Behavior, error) {
			c := cfg.(*Config)
			if c.Count < 0 {
				return nil, fmt.Errorf("%w: %d", ErrCount, c.Count)
			}
			return &Repeat{count: c.Count}, nil
		},
	})
}
