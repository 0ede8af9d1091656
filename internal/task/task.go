package task

import "github.com/specialistvlad/pulsegraph/internal/graph"

// Task is the compiled execution unit for one node.
type Task struct {
	// Index is the task's position in Program.Tasks.
	Index int
	// Node is the graph node this task updates.
	Node graph.NodeID
	// Name is the node name, kept for logs and hooks.
	Name string
	// MainThreadOnly copies the node's thread affinity.
	MainThreadOnly bool

	// Upstream and Downstream hold task indices linked by immediate edges.
	Upstream   []int
	Downstream []int
	// Later lists the node's deferred output ports (keys of Program.Deferred).
	Later []graph.PortID

	// StartDirty and StartCounter are the snapshot every pass resets to.
	StartDirty   bool
	StartCounter int32
}

// DeferredEdge records where a "later" output's dirtiness goes once its
// producing task has finished.
type DeferredEdge struct {
	// Port is the producing output port.
	Port graph.PortID
	// Producer is the index of the task owning Port.
	Producer int
	// Ports are the input ports linked below Port.
	Ports []graph.PortID
	// Tasks are the distinct owners of Ports.
	Tasks []int
	// Closure is Tasks plus everything below them over immediate edges, in
	// program order.
	Closure []int
}

// Program is the result of Compile.
type Program struct {
	// Tasks in dependency-first order.
	Tasks []Task
	// Deferred edges keyed by producing port.
	Deferred map[graph.PortID]*DeferredEdge
	// Roots are the ports the start snapshot was computed from.
	Roots []graph.PortID
	// Version is the graph version the program was compiled against.
	Version uint64

	byNode []int
}

// Index returns the task index of a node, or -1.
func (p *Program) Index(n graph.NodeID) int {
	if n < 0 || int(n) >= len(p.byNode) {
		return -1
	}
	return p.byNode[n]
}

// StartDirty returns the indices of tasks dirty at pass start.
func (p *Program) StartDirty() []int {
	var out []int
	for i := range p.Tasks {
		if p.Tasks[i].StartDirty {
			out = append(out, i)
		}
	}
	return out
}

// Stale reports whether the graph changed since the program was compiled.
func (p *Program) Stale(g *graph.Graph) bool {
	return p == nil || p.Version != g.Version()
}
