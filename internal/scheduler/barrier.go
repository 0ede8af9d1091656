package scheduler

// WaitForOtherTasks blocks a node update until it is the only active task
// left and no ready work is queued, running queued tasks itself in the
// meantime. isMainThread must be true only when the caller runs on the
// goroutine that called Update; it lets the caller drain main-thread-only work
// as well. Outside a pass it returns immediately.
//
// Several updates may wait at once. They all resume when every active task is
// waiting and the queues are empty.
func (s *Scheduler) WaitForOtherTasks(isMainThread bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pass == nil {
		return
	}
	s.wait(s.pass, isMainThread)
}

func (s *Scheduler) wait(p *pass, isMain bool) {
	p.waiting++
	for p.active != p.waiting || !p.ready.empty() {
		if idx, ok := p.next(isMain); ok {
			s.run(p, idx, isMain)
			continue
		}
		s.cond.Wait()
	}
	p.waiting--
}
