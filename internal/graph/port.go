package graph

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Direction tells inputs from outputs.
type Direction int

const (
	In Direction = iota
	Out
)

// LinkKind tags a link as dependency-carrying or deferred.
type LinkKind int

const (
	// Immediate links order the consumer after the producer within a pass.
	Immediate LinkKind = iota
	// Deferred links are applied when the producer finishes and are never
	// counted as dependencies, so feedback does not form a cycle.
	Deferred
)

func (k LinkKind) String() string {
	if k == Deferred {
		return "deferred"
	}
	return "immediate"
}

// Port is a typed data slot belonging to a node.
type Port struct {
	g    *Graph
	id   PortID
	node NodeID

	Name string
	Dir  Direction
	// Later is set on outputs declared as deferred by their node.
	Later bool

	parent   PortID
	children []PortID

	dirty atomic.Bool

	mu    sync.RWMutex
	value any
}

// ID returns the port's handle.
func (p *Port) ID() PortID { return p.id }

// Node returns the handle of the owning node.
func (p *Port) Node() NodeID { return p.node }

// Set stores a value on the port.
func (p *Port) Set(v any) {
	p.mu.Lock()
	p.value = v
	p.mu.Unlock()
}

// Get returns the port's value. A linked input reads through to its parent.
func (p *Port) Get() any {
	if p.Dir == In && p.parent != NoPort {
		return p.g.ports[p.parent].Get()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Linked reports whether an input port has a parent.
func (p *Port) Linked() bool { return p.parent != NoPort }

// Dirty reports the port's dirty bit.
func (p *Port) Dirty() bool { return p.dirty.Load() }

// Clean clears the port's dirty bit. A node clears its own later output to
// signal that the value did not change and nothing downstream needs to run.
func (p *Port) Clean() { p.dirty.Store(false) }

func (p *Port) String() string {
	return fmt.Sprintf("%s.%s", p.g.nodes[p.node].Name, p.Name)
}
