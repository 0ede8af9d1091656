package scheduler

import (
	"context"

	"github.com/specialistvlad/pulsegraph/internal/graph"
)

type runtimeKey struct{}

// Runtime is the scheduler as seen from inside one node update. A nil
// Runtime is valid and behaves as if no pass were running.
type Runtime struct {
	s    *Scheduler
	p    *pass
	task int
	main bool
}

func withRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// FromContext returns the Runtime of the node update ctx belongs to, or nil.
func FromContext(ctx context.Context) *Runtime {
	rt, _ := ctx.Value(runtimeKey{}).(*Runtime)
	return rt
}

// IsMainThread reports whether the update runs on the goroutine that called
// Update.
func (r *Runtime) IsMainThread() bool {
	return r != nil && r.main
}

// Pass returns the number of the running pass.
func (r *Runtime) Pass() uint64 {
	if r == nil {
		return 0
	}
	return r.p.number
}

// WaitForOtherTasks is Scheduler.WaitForOtherTasks with the caller's thread
// affinity filled in.
func (r *Runtime) WaitForOtherTasks() {
	if r == nil {
		return
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.pass != r.p {
		return
	}
	r.s.wait(r.p, r.main)
}

// SetDataDirty stages a port within the running pass.
func (r *Runtime) SetDataDirty(id graph.PortID) error {
	if r == nil {
		return ErrNoPass
	}
	return r.s.SetDataDirty(id)
}

// SetDataReady releases a port staged with SetDataDirty.
func (r *Runtime) SetDataReady(id graph.PortID) error {
	if r == nil {
		return ErrNoPass
	}
	return r.s.SetDataReady(id)
}
