package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/pulsegraph/internal/graph"
)

// ErrCycle is returned when immediate links form a cycle.
var ErrCycle = errors.New("immediate links form a cycle")

// AlwaysDirtyRoots returns every port of the nodes flagged AlwaysDirty.
func AlwaysDirtyRoots(g *graph.Graph) []graph.PortID {
	var roots []graph.PortID
	for _, n := range g.Nodes() {
		if !n.AlwaysDirty {
			continue
		}
		roots = append(roots, n.Inputs()...)
		roots = append(roots, n.Outputs()...)
	}
	return roots
}

// Compile builds a Program for every node of g. roots are the ports dirty at
// the start of each pass.
func Compile(g *graph.Graph, roots []graph.PortID) (*Program, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	prog := &Program{
		Tasks:    make([]Task, len(order)),
		Deferred: make(map[graph.PortID]*DeferredEdge),
		Roots:    append([]graph.PortID(nil), roots...),
		Version:  g.Version(),
		byNode:   make([]int, g.Len()),
	}
	for i, id := range order {
		prog.byNode[id] = i
	}

	for i, id := range order {
		n, _ := g.Node(id)
		t := &prog.Tasks[i]
		t.Index = i
		t.Node = id
		t.Name = n.Name
		t.MainThreadOnly = n.MainThreadOnly
		for _, up := range g.Upstream(id, graph.Immediate) {
			t.Upstream = append(t.Upstream, prog.byNode[up])
		}
		for _, down := range g.Downstream(id, graph.Immediate) {
			t.Downstream = append(t.Downstream, prog.byNode[down])
		}
		sort.Ints(t.Upstream)
		sort.Ints(t.Downstream)
	}

	if err := prog.snapshot(g, roots); err != nil {
		return nil, err
	}
	prog.deferredEdges(g)
	return prog, nil
}

// topoOrder is Kahn's algorithm over immediate links. Ready nodes are taken
// in handle order so the result is deterministic.
func topoOrder(g *graph.Graph) ([]graph.NodeID, error) {
	n := g.Len()
	indegree := make([]int, n)
	for id := range n {
		indegree[id] = len(g.Upstream(graph.NodeID(id), graph.Immediate))
	}

	ready := make([]graph.NodeID, 0, n)
	for id := range n {
		if indegree[id] == 0 {
			ready = append(ready, graph.NodeID(id))
		}
	}

	order := make([]graph.NodeID, 0, n)
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, down := range g.Downstream(id, graph.Immediate) {
			indegree[down]--
			if indegree[down] == 0 {
				ready = append(ready, down)
			}
		}
	}

	if len(order) != n {
		var stuck []string
		for id := range n {
			if indegree[id] > 0 {
				node, _ := g.Node(graph.NodeID(id))
				stuck = append(stuck, node.Name)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}

// snapshot marks the tasks reachable from roots over immediate edges and
// counts each one's dirty immediate upstream tasks.
func (p *Program) snapshot(g *graph.Graph, roots []graph.PortID) error {
	var queue []int
	for _, r := range roots {
		port, err := g.Port(r)
		if err != nil {
			return err
		}
		idx := p.byNode[port.Node()]
		if !p.Tasks[idx].StartDirty {
			p.Tasks[idx].StartDirty = true
			queue = append(queue, idx)
		}
	}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		for _, down := range p.Tasks[idx].Downstream {
			if !p.Tasks[down].StartDirty {
				p.Tasks[down].StartDirty = true
				queue = append(queue, down)
			}
		}
	}

	for i := range p.Tasks {
		t := &p.Tasks[i]
		if !t.StartDirty {
			continue
		}
		for _, up := range t.Upstream {
			if p.Tasks[up].StartDirty {
				t.StartCounter++
			}
		}
	}
	return nil
}

func (p *Program) deferredEdges(g *graph.Graph) {
	for i := range p.Tasks {
		t := &p.Tasks[i]
		n, _ := g.Node(t.Node)
		for _, out := range n.Outputs() {
			if g.LinkKind(out) != graph.Deferred {
				continue
			}
			t.Later = append(t.Later, out)

			edge := &DeferredEdge{Port: out, Producer: i}
			seen := make(map[int]bool)
			for _, child := range g.Children(out) {
				edge.Ports = append(edge.Ports, child)
				port, _ := g.Port(child)
				idx := p.byNode[port.Node()]
				if !seen[idx] {
					seen[idx] = true
					edge.Tasks = append(edge.Tasks, idx)
				}
			}
			sort.Ints(edge.Tasks)
			edge.Closure = p.Closure(edge.Tasks)
			p.Deferred[out] = edge
		}
	}
}

// Closure returns the given tasks and everything below them over immediate
// edges, in program order.
func (p *Program) Closure(from []int) []int {
	seen := make([]bool, len(p.Tasks))
	queue := append([]int(nil), from...)
	for _, idx := range from {
		seen[idx] = true
	}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		for _, down := range p.Tasks[idx].Downstream {
			if !seen[down] {
				seen[down] = true
				queue = append(queue, down)
			}
		}
	}

	var out []int
	for idx, ok := range seen {
		if ok {
			out = append(out, idx)
		}
	}
	return out
}
