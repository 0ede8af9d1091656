// Package present provides the "present" sink. It stands in for work bound
// to the thread that owns a rendering context, so it is main-thread-only.
package present

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
)

// ErrWrongThread is returned when a present node runs off the main worker.
var ErrWrongThread = errors.New("present must run on the main thread")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Presenter is the behavior of one present node.
type Presenter struct {
	mu     sync.Mutex
	frames []any
}

// Update records the input as a presented frame.
func (p *Presenter) Update(ctx context.Context, n *graph.Node) error {
	if rt := scheduler.FromContext(ctx); rt != nil && !rt.IsMainThread() {
		return ErrWrongThread
	}
	v := n.Input("in").Get()
	p.mu.Lock()
	p.frames = append(p.frames, v)
	count := len(p.frames)
	p.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Presented frame.", "frame", count, "value", v)
	return nil
}

// Frames returns every presented value in order.
func (p *Presenter) Frames() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.frames...)
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{
		Name:           "present",
		Inputs:         []string{"in"},
		MainThreadOnly: true,
		New: func(any) (graph.Behavior, error) {
			return new(Presenter), nil
		},
	})
}
