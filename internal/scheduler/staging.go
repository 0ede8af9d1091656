package scheduler

import (
	"github.com/specialistvlad/pulsegraph/internal/graph"
)

// SetDataDirty is the first half of manual staging. Outside a pass it marks
// the port dirty for the next pass. During a pass it arms the nodes fed by
// the port (or owning it, for an input) together with everything below them,
// and holds those nodes back until SetDataReady is called for the same port.
// Nodes that already ran in this pass are armed again, which is how a node
// drives several sub-iterations of a subtree within one pass.
func (s *Scheduler) SetDataDirty(id graph.PortID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pass == nil {
		return s.g.MarkDirty(id)
	}
	return s.pass.stageData(id)
}

// SetDataReady releases the hold taken by SetDataDirty. Ports that were
// never staged are ignored.
func (s *Scheduler) SetDataReady(id graph.PortID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pass == nil {
		if _, err := s.g.Port(id); err != nil {
			return err
		}
		return ErrNoPass
	}
	if err := s.pass.readyData(id); err != nil {
		return err
	}
	s.cond.Broadcast()
	return nil
}

func (p *pass) stageData(id graph.PortID) error {
	port, err := p.g.Port(id)
	if err != nil {
		return err
	}
	p.g.SetDirtyFlag(id)

	var targets []int
	if port.Dir == graph.Out {
		seen := make(map[int]bool)
		for _, c := range p.g.Children(id) {
			child, err := p.g.Port(c)
			if err != nil {
				return err
			}
			p.g.SetDirtyFlag(c)
			idx := p.prog.Index(child.Node())
			if !seen[idx] {
				seen[idx] = true
				targets = append(targets, idx)
			}
		}
	} else {
		targets = append(targets, p.prog.Index(port.Node()))
	}

	armed := p.arm(p.prog.Closure(targets), true)
	for _, idx := range targets {
		if p.slots[idx].state != statePending {
			continue
		}
		p.slots[idx].counter++
		p.holds[id] = append(p.holds[id], idx)
	}
	p.enqueueReady(armed)
	return nil
}

func (p *pass) readyData(id graph.PortID) error {
	if _, err := p.g.Port(id); err != nil {
		return err
	}
	held := p.holds[id]
	delete(p.holds, id)
	for _, idx := range held {
		sl := &p.slots[idx]
		if sl.state != statePending {
			continue
		}
		sl.counter--
		if sl.counter == 0 {
			p.enqueue(idx)
		}
	}
	return nil
}
