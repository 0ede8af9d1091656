package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/task"
)

type taskState uint8

const (
	stateIdle taskState = iota
	statePending
	stateQueued
	stateRunning
	stateDone
)

// slot is the per-pass state of one task.
type slot struct {
	state taskState
	// counter is the number of unfinished immediate upstream tasks plus
	// staging holds. The task is enqueued when it reaches zero.
	counter int32
	skipped bool
	failed  bool
	// carry re-stages the task for the next pass.
	carry bool
	runs  int
}

// busy reports whether the task will still finish in this pass.
func (s *slot) busy() bool {
	return s.state == statePending || s.state == stateQueued || s.state == stateRunning
}

// pass holds everything that changes while a pass runs. All fields are
// guarded by Scheduler.mu.
type pass struct {
	ctx     context.Context
	number  uint64
	prog    *task.Program
	g       *graph.Graph
	slots   []slot
	ready   readyQueues
	active  int
	waiting int
	holds   map[graph.PortID][]int
	errs    []error
	ran     int
	started time.Time
}

func newPass(ctx context.Context, number uint64, prog *task.Program, g *graph.Graph) *pass {
	p := &pass{
		ctx:     ctx,
		number:  number,
		prog:    prog,
		g:       g,
		slots:   make([]slot, len(prog.Tasks)),
		holds:   make(map[graph.PortID][]int),
		started: time.Now(),
	}
	for i := range prog.Tasks {
		t := &prog.Tasks[i]
		if t.StartDirty {
			p.slots[i] = slot{state: statePending, counter: t.StartCounter}
			p.flagPorts(i)
		}
	}
	return p
}

// stage arms the tasks owning the given ports, together with everything
// below them, before the queues are seeded.
func (p *pass) stage(ports []graph.PortID) {
	var owners []int
	for _, id := range ports {
		port, err := p.g.Port(id)
		if err != nil {
			continue
		}
		owners = append(owners, p.prog.Index(port.Node()))
	}
	p.arm(p.prog.Closure(owners), false)
}

// seed enqueues every pending task whose counter is already zero.
func (p *pass) seed() {
	for i := range p.slots {
		if p.slots[i].state == statePending && p.slots[i].counter == 0 {
			p.enqueue(i)
		}
	}
}

// arm moves candidate tasks into the pending state and fixes up counters.
// candidates must be closed under immediate downstream edges. With rearm set,
// tasks that already ran in this pass are armed again instead of carried.
// The newly pending tasks are returned without being enqueued.
func (p *pass) arm(candidates []int, rearm bool) []int {
	var armed []int
	inArmed := make(map[int]bool)
	for _, idx := range candidates {
		sl := &p.slots[idx]
		switch sl.state {
		case stateIdle:
		case stateDone:
			if !rearm {
				sl.carry = true
				continue
			}
		case stateQueued:
			// It reads its inputs when it runs.
			p.flagPorts(idx)
			continue
		case stateRunning:
			// It may already have read the stale value.
			sl.carry = true
			continue
		default:
			continue
		}
		armed = append(armed, idx)
		inArmed[idx] = true
	}

	for _, idx := range armed {
		p.slots[idx] = slot{state: statePending, runs: p.slots[idx].runs}
		p.flagPorts(idx)
	}
	for _, idx := range armed {
		for _, up := range p.prog.Tasks[idx].Upstream {
			if p.slots[up].busy() {
				p.slots[idx].counter++
			}
		}
		// Tasks already waiting below a newly armed task gain a dependency.
		for _, down := range p.prog.Tasks[idx].Downstream {
			if !inArmed[down] && p.slots[down].state == statePending {
				p.slots[down].counter++
			}
		}
	}
	return armed
}

func (p *pass) enqueueReady(armed []int) {
	for _, idx := range armed {
		if p.slots[idx].state == statePending && p.slots[idx].counter == 0 {
			p.enqueue(idx)
		}
	}
}

func (p *pass) enqueue(idx int) {
	sl := &p.slots[idx]
	if sl.state != statePending {
		return
	}
	if sl.skipped {
		p.skipDone(idx)
		return
	}
	sl.state = stateQueued
	p.ready.push(idx, p.prog.Tasks[idx].MainThreadOnly)
}

// next pops a runnable task and marks it running.
func (p *pass) next(isMain bool) (int, bool) {
	idx, ok := p.ready.pop(isMain)
	if !ok {
		return 0, false
	}
	p.slots[idx].state = stateRunning
	p.slots[idx].runs++
	p.active++
	p.ran++
	return idx, true
}

// finished reports the pass-end condition.
func (p *pass) finished() bool {
	return p.active == 0 && p.ready.empty()
}

// finish records a completed task, releases its downstream tasks and applies
// its deferred edges.
func (p *pass) finish(idx int, err error) {
	sl := &p.slots[idx]
	sl.state = stateDone
	p.active--

	t := &p.prog.Tasks[idx]
	if err != nil {
		sl.failed = true
		p.errs = append(p.errs, fmt.Errorf("node %s: %w", t.Name, err))
		p.skipBelow(idx)
		return
	}

	for _, down := range t.Downstream {
		p.release(down)
	}
	for _, port := range t.Later {
		if p.g.IsDirty(port) {
			p.applyDeferred(p.prog.Deferred[port])
		}
	}
}

// release tells a downstream task that one of its upstream tasks finished.
func (p *pass) release(idx int) {
	sl := &p.slots[idx]
	switch sl.state {
	case statePending:
		sl.counter--
		if sl.counter == 0 {
			p.enqueue(idx)
		}
	case stateRunning, stateDone:
		// It already consumed stale input; run it again next pass.
		sl.carry = true
	}
}

func (p *pass) applyDeferred(edge *task.DeferredEdge) {
	if edge == nil {
		return
	}
	for _, port := range edge.Ports {
		p.g.SetDirtyFlag(port)
	}
	p.enqueueReady(p.arm(edge.Closure, false))
}

func (p *pass) skipBelow(idx int) {
	for _, down := range p.prog.Tasks[idx].Downstream {
		sl := &p.slots[down]
		if sl.state != statePending {
			continue
		}
		sl.skipped = true
		sl.counter--
		if sl.counter == 0 {
			p.skipDone(down)
		}
	}
}

func (p *pass) skipDone(idx int) {
	sl := &p.slots[idx]
	sl.state = stateDone
	sl.skipped = true
	p.skipBelow(idx)
}

// flagPorts sets the dirty bit of every port of the task's node without
// propagating; the pass drives propagation itself.
func (p *pass) flagPorts(idx int) {
	n, err := p.g.Node(p.prog.Tasks[idx].Node)
	if err != nil {
		return
	}
	for _, id := range n.Inputs() {
		p.g.SetDirtyFlag(id)
	}
	for _, id := range n.Outputs() {
		p.g.SetDirtyFlag(id)
	}
}

// complete clears the dirty flags of every task that ran cleanly and builds
// the report. Failed, skipped, carried and starved tasks stay dirty so the
// next pass picks them up again.
func (p *pass) complete() PassReport {
	r := PassReport{Pass: p.number, Ran: p.ran, Duration: time.Since(p.started)}
	for i := range p.slots {
		sl := &p.slots[i]
		name := p.prog.Tasks[i].Name
		switch {
		case sl.state == statePending:
			r.Starved = append(r.Starved, name)
		case sl.failed:
			r.Failed = append(r.Failed, name)
		case sl.skipped:
			r.Skipped = append(r.Skipped, name)
		case sl.carry:
			r.Carried = append(r.Carried, name)
		case sl.state == stateDone:
			p.g.CleanNode(p.prog.Tasks[i].Node)
		}
	}
	return r
}
