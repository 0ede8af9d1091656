package scheduler

// fifo is a slice-backed queue of task indices.
type fifo struct {
	items []int
	head  int
}

func (q *fifo) push(idx int) {
	q.items = append(q.items, idx)
}

func (q *fifo) pop() (int, bool) {
	if q.head == len(q.items) {
		return 0, false
	}
	idx := q.items[q.head]
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return idx, true
}

func (q *fifo) len() int {
	return len(q.items) - q.head
}

// readyQueues holds runnable tasks split by thread affinity.
type readyQueues struct {
	shared fifo
	main   fifo
}

func (r *readyQueues) push(idx int, mainOnly bool) {
	if mainOnly {
		r.main.push(idx)
		return
	}
	r.shared.push(idx)
}

// pop serves the main worker from its own queue first; other workers only see
// the shared queue.
func (r *readyQueues) pop(isMain bool) (int, bool) {
	if isMain {
		if idx, ok := r.main.pop(); ok {
			return idx, true
		}
	}
	return r.shared.pop()
}

func (r *readyQueues) empty() bool {
	return r.shared.len() == 0 && r.main.len() == 0
}
