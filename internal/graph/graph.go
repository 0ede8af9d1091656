package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPort is returned when a handle or path names no port.
	ErrUnknownPort = errors.New("unknown port")
	// ErrUnknownNode is returned when a handle or name names no node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode is returned when a node name is already taken.
	ErrDuplicateNode = errors.New("duplicate node name")
	// ErrPortDirection is returned when a link does not run output -> input.
	ErrPortDirection = errors.New("link must run from an output port to an input port")
	// ErrAlreadyLinked is returned when an input port already has a parent.
	ErrAlreadyLinked = errors.New("input port already has a parent")
	// ErrNotLinked is returned when removing a link from an unlinked port.
	ErrNotLinked = errors.New("input port has no parent")
)

// NodeID addresses a node inside its Graph.
type NodeID int

// PortID addresses a port inside its Graph.
type PortID int

// NoPort marks the absence of a port, e.g. an input without a parent.
const NoPort PortID = -1

// Behavior is the per-node computation. The scheduler treats it as a black
// box and only calls Update once per pass while the node is dirty.
type Behavior interface {
	Update(ctx context.Context, n *Node) error
}

// BehaviorFunc adapts a plain function to the Behavior interface.
type BehaviorFunc func(ctx context.Context, n *Node) error

// Update calls f(ctx, n).
func (f BehaviorFunc) Update(ctx context.Context, n *Node) error {
	return f(ctx, n)
}

// NodeSpec declares a node before it is added to a graph.
type NodeSpec struct {
	// Name must be unique within the graph.
	Name string
	// Kind is informational (the registry kind that produced the node).
	Kind    string
	Inputs  []string
	Outputs []string
	// Later lists output names whose links are applied only after the node
	// finishes its update within a pass.
	Later []string
	// MainThreadOnly pins the node's update to the goroutine running the pass.
	MainThreadOnly bool
	// AlwaysDirty marks an external source (time, input signals) that is
	// dirty at the start of every pass.
	AlwaysDirty bool
	Behavior    Behavior
}

// Node is a computation unit owned by a Graph.
type Node struct {
	g  *Graph
	id NodeID

	Name           string
	Kind           string
	MainThreadOnly bool
	AlwaysDirty    bool
	Behavior       Behavior

	inputs  []PortID
	outputs []PortID
}

// ID returns the node's handle.
func (n *Node) ID() NodeID { return n.id }

// Graph returns the graph the node belongs to.
func (n *Node) Graph() *Graph { return n.g }

// Inputs returns the node's input port handles in declaration order.
func (n *Node) Inputs() []PortID { return n.inputs }

// Outputs returns the node's output port handles in declaration order.
func (n *Node) Outputs() []PortID { return n.outputs }

// Input returns the named input port, or nil.
func (n *Node) Input(name string) *Port { return n.find(n.inputs, name) }

// Output returns the named output port, or nil.
func (n *Node) Output(name string) *Port { return n.find(n.outputs, name) }

func (n *Node) find(ids []PortID, name string) *Port {
	for _, id := range ids {
		if p := n.g.ports[id]; p.Name == name {
			return p
		}
	}
	return nil
}

// Graph is an arena of nodes and ports.
type Graph struct {
	nodes   []*Node
	ports   []*Port
	byName  map[string]NodeID
	version uint64
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{byName: make(map[string]NodeID)}
}

// Version changes whenever the topology changes. The scheduler compares it
// against the version its compiled tasks were built from.
func (g *Graph) Version() uint64 { return g.version }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddNode adds a node with its ports and returns its handle.
func (g *Graph) AddNode(spec NodeSpec) (NodeID, error) {
	if spec.Name == "" || strings.Contains(spec.Name, ".") {
		return 0, fmt.Errorf("invalid node name %q", spec.Name)
	}
	if _, ok := g.byName[spec.Name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateNode, spec.Name)
	}

	later := make(map[string]bool, len(spec.Later))
	for _, name := range spec.Later {
		later[name] = true
	}

	n := &Node{
		g:              g,
		id:             NodeID(len(g.nodes)),
		Name:           spec.Name,
		Kind:           spec.Kind,
		MainThreadOnly: spec.MainThreadOnly,
		AlwaysDirty:    spec.AlwaysDirty,
		Behavior:       spec.Behavior,
	}
	for _, name := range spec.Inputs {
		n.inputs = append(n.inputs, g.addPort(n.id, name, In, false))
	}
	for _, name := range spec.Outputs {
		n.outputs = append(n.outputs, g.addPort(n.id, name, Out, later[name]))
		delete(later, name)
	}
	if len(later) > 0 {
		// Roll back the ports we just appended.
		g.ports = g.ports[:len(g.ports)-len(n.inputs)-len(n.outputs)]
		return 0, fmt.Errorf("node %s declares later outputs that do not exist: %v", spec.Name, keys(later))
	}

	g.nodes = append(g.nodes, n)
	g.byName[n.Name] = n.id
	g.version++
	return n.id, nil
}

func (g *Graph) addPort(owner NodeID, name string, dir Direction, later bool) PortID {
	p := &Port{
		g:      g,
		id:     PortID(len(g.ports)),
		node:   owner,
		Name:   name,
		Dir:    dir,
		Later:  later,
		parent: NoPort,
	}
	g.ports = append(g.ports, p)
	return p.id
}

// Node returns the node for a handle.
func (g *Graph) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownNode, id)
	}
	return g.nodes[id], nil
}

// NodeByName looks a node up by its unique name.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns all nodes in handle order. The slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Port returns the port for a handle.
func (g *Graph) Port(id PortID) (*Port, error) {
	if id < 0 || int(id) >= len(g.ports) {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownPort, id)
	}
	return g.ports[id], nil
}

// Lookup resolves a "node.port" path. Outputs are preferred over inputs when
// a node uses the same name for both.
func (g *Graph) Lookup(path string) (PortID, error) {
	nodeName, portName, ok := strings.Cut(path, ".")
	if !ok {
		return NoPort, fmt.Errorf("%w: %q is not of the form node.port", ErrUnknownPort, path)
	}
	n, ok := g.NodeByName(nodeName)
	if !ok {
		return NoPort, fmt.Errorf("%w: %s", ErrUnknownNode, nodeName)
	}
	if p := n.Output(portName); p != nil {
		return p.id, nil
	}
	if p := n.Input(portName); p != nil {
		return p.id, nil
	}
	return NoPort, fmt.Errorf("%w: %s", ErrUnknownPort, path)
}

// AddLink connects an output port to an input port and marks the child dirty.
func (g *Graph) AddLink(parent, child PortID) error {
	pp, err := g.Port(parent)
	if err != nil {
		return err
	}
	cp, err := g.Port(child)
	if err != nil {
		return err
	}
	if pp.Dir != Out || cp.Dir != In {
		return fmt.Errorf("%w: %s -> %s", ErrPortDirection, pp, cp)
	}
	if cp.parent != NoPort {
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, cp)
	}

	cp.parent = parent
	pp.children = append(pp.children, child)
	g.version++
	g.markDirty(cp)
	return nil
}

// RemoveLink detaches an input port from its parent and marks it dirty, as
// its effective value changed.
func (g *Graph) RemoveLink(child PortID) error {
	cp, err := g.Port(child)
	if err != nil {
		return err
	}
	if cp.Dir != In || cp.parent == NoPort {
		return fmt.Errorf("%w: %s", ErrNotLinked, cp)
	}

	pp := g.ports[cp.parent]
	for i, c := range pp.children {
		if c == child {
			pp.children = append(pp.children[:i], pp.children[i+1:]...)
			break
		}
	}
	cp.parent = NoPort
	g.version++
	g.markDirty(cp)
	return nil
}

// Parent returns the parent of an input port, or NoPort.
func (g *Graph) Parent(id PortID) PortID {
	if p, err := g.Port(id); err == nil {
		return p.parent
	}
	return NoPort
}

// Children returns the ports linked below an output port.
func (g *Graph) Children(id PortID) []PortID {
	if p, err := g.Port(id); err == nil {
		return p.children
	}
	return nil
}

// LinkKind reports how links leaving the given output port behave.
func (g *Graph) LinkKind(parent PortID) LinkKind {
	if p, err := g.Port(parent); err == nil && p.Later {
		return Deferred
	}
	return Immediate
}

// Upstream returns the distinct nodes feeding n through links of the given kind.
func (g *Graph) Upstream(n NodeID, kind LinkKind) []NodeID {
	var out []NodeID
	seen := make(map[NodeID]bool)
	for _, in := range g.nodes[n].inputs {
		parent := g.ports[in].parent
		if parent == NoPort || g.LinkKind(parent) != kind {
			continue
		}
		owner := g.ports[parent].node
		if !seen[owner] {
			seen[owner] = true
			out = append(out, owner)
		}
	}
	return out
}

// Downstream returns the distinct nodes fed by n through links of the given kind.
func (g *Graph) Downstream(n NodeID, kind LinkKind) []NodeID {
	var out []NodeID
	seen := make(map[NodeID]bool)
	for _, o := range g.nodes[n].outputs {
		if g.LinkKind(o) != kind {
			continue
		}
		for _, c := range g.ports[o].children {
			owner := g.ports[c].node
			if !seen[owner] {
				seen[owner] = true
				out = append(out, owner)
			}
		}
	}
	return out
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
