package graph

// MarkDirty sets the port's dirty bit and propagates it downstream along
// immediate links, stopping at ports that are already dirty.
func (g *Graph) MarkDirty(id PortID) error {
	p, err := g.Port(id)
	if err != nil {
		return err
	}
	g.markDirty(p)
	return nil
}

func (g *Graph) markDirty(root *Port) {
	stack := []*Port{root}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !p.dirty.CompareAndSwap(false, true) {
			continue
		}
		switch p.Dir {
		case In:
			for _, o := range g.nodes[p.node].outputs {
				stack = append(stack, g.ports[o])
			}
		case Out:
			if p.Later {
				continue
			}
			for _, c := range p.children {
				stack = append(stack, g.ports[c])
			}
		}
	}
}

// SetDirtyFlag sets a single dirty bit without propagating. The scheduler
// uses it when it drives propagation itself.
func (g *Graph) SetDirtyFlag(id PortID) {
	if p, err := g.Port(id); err == nil {
		p.dirty.Store(true)
	}
}

// Clean clears a port's dirty bit.
func (g *Graph) Clean(id PortID) {
	if p, err := g.Port(id); err == nil {
		p.dirty.Store(false)
	}
}

// IsDirty reports a port's dirty bit. Unknown ports are never dirty.
func (g *Graph) IsDirty(id PortID) bool {
	p, err := g.Port(id)
	return err == nil && p.dirty.Load()
}

// CleanNode clears the dirty bits of every port of a node.
func (g *Graph) CleanNode(id NodeID) {
	n, err := g.Node(id)
	if err != nil {
		return
	}
	for _, p := range n.inputs {
		g.ports[p].dirty.Store(false)
	}
	for _, p := range n.outputs {
		g.ports[p].dirty.Store(false)
	}
}

// NodeDirty reports whether any port of the node is dirty.
func (g *Graph) NodeDirty(id NodeID) bool {
	n, err := g.Node(id)
	if err != nil {
		return false
	}
	for _, p := range n.inputs {
		if g.ports[p].dirty.Load() {
			return true
		}
	}
	for _, p := range n.outputs {
		if g.ports[p].dirty.Load() {
			return true
		}
	}
	return false
}

// DirtyPorts returns every dirty port in handle order.
func (g *Graph) DirtyPorts() []PortID {
	var out []PortID
	for _, p := range g.ports {
		if p.dirty.Load() {
			out = append(out, p.id)
		}
	}
	return out
}
