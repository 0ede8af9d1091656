package testutil

import (
	"sort"
	"sync"
	"time"
)

// ExecutionRecord holds the start and end times for a single node update.
type ExecutionRecord struct {
	Node   string
	Start  time.Time
	End    time.Time
	Thread int
}

// Recorder collects execution records from concurrently running node
// updates. Records are kept in completion order.
type Recorder struct {
	mu      sync.Mutex
	seq     int
	records []ExecutionRecord
	starts  map[string][]int
	ends    map[string][]int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		starts: make(map[string][]int),
		ends:   make(map[string][]int),
	}
}

// Begin notes that node started and returns the function that completes the
// record. thread is an opaque caller-supplied identity, such as an OS thread
// id.
func (r *Recorder) Begin(node string, thread int) func() {
	r.mu.Lock()
	r.seq++
	r.starts[node] = append(r.starts[node], r.seq)
	r.mu.Unlock()
	start := time.Now()

	return func() {
		end := time.Now()
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seq++
		r.ends[node] = append(r.ends[node], r.seq)
		r.records = append(r.records, ExecutionRecord{Node: node, Start: start, End: end, Thread: thread})
	}
}

// Records returns a copy of every completed record.
func (r *Recorder) Records() []ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ExecutionRecord(nil), r.records...)
}

// Order returns node names sorted by start sequence.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	type start struct {
		node string
		seq  int
	}
	var all []start
	for node, seqs := range r.starts {
		for _, s := range seqs {
			all = append(all, start{node, s})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.node
	}
	return out
}

// Count returns how many times node started.
func (r *Recorder) Count(node string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts[node])
}

// Total returns the number of starts across all nodes.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.starts {
		n += len(s)
	}
	return n
}

// StartedAfter reports whether every start of consumer happened after some
// end of producer, using the recorder's sequence numbers rather than clocks.
// It is vacuously true when consumer never ran.
func (r *Recorder) StartedAfter(producer, consumer string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	starts := r.starts[consumer]
	if len(starts) == 0 {
		return true
	}
	ends := r.ends[producer]
	if len(ends) == 0 {
		return false
	}
	return ends[0] < starts[0]
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq = 0
	r.records = nil
	r.starts = make(map[string][]int)
	r.ends = make(map[string][]int)
}
