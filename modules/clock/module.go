// Package clock provides the "clock" node kind: a source that is dirty at the
// start of every pass and advances a tick counter each time it runs.
package clock

import (
	"context"
	"sync/atomic"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config holds the node attributes.
type Config struct {
	Start float64 `cty:"start"`
	Step  float64 `cty:"step"`
}

// Clock is the behavior of one clock node.
type Clock struct {
	cfg   Config
	ticks atomic.Int64
}

// Update advances the tick and publishes start + ticks*step.
func (c *Clock) Update(ctx context.Context, n *graph.Node) error {
	t := c.ticks.Add(1)
	value := c.cfg.Start + float64(t-1)*c.cfg.Step
	n.Output("tick").Set(value)
	ctxlog.FromContext(ctx).Debug("Clock ticked.", "tick", t, "value", value)
	return nil
}

// Ticks returns how many times the clock ran.
func (c *Clock) Ticks() int64 {
	return c.ticks.Load()
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{
		Name:        "clock",
		Outputs:     []string{"tick"},
		AlwaysDirty: true,
		NewConfig:   func() any { return &Config{Step: 1} },
		New: func(cfg any) (graph.Behavior, error) {
			return &Clock{cfg: *cfg.(*Config)}, nil
		},
	})
}
