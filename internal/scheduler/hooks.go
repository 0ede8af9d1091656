package scheduler

import "time"

// TaskInfo describes one task execution to hooks.
type TaskInfo struct {
	Pass       uint64
	Index      int
	Node       string
	MainThread bool
	// Duration is zero in OnTaskStart.
	Duration time.Duration
}

// PassReport summarizes a finished pass.
type PassReport struct {
	Pass uint64
	// Ran counts task executions, including re-armed sub-iterations.
	Ran      int
	Failed   []string
	Skipped  []string
	Carried  []string
	Starved  []string
	Duration time.Duration
}

// Hooks observe the scheduler. Every field is optional. Task hooks run on the
// worker executing the task and must be safe for concurrent use.
type Hooks struct {
	OnTaskStart func(TaskInfo)
	OnTaskEnd   func(TaskInfo, error)
	OnPassEnd   func(PassReport)
}

type hookList []Hooks

func (l hookList) taskStart(info TaskInfo) {
	for _, h := range l {
		if h.OnTaskStart != nil {
			h.OnTaskStart(info)
		}
	}
}

func (l hookList) taskEnd(info TaskInfo, err error) {
	for _, h := range l {
		if h.OnTaskEnd != nil {
			h.OnTaskEnd(info, err)
		}
	}
}

func (l hookList) passEnd(r PassReport) {
	for _, h := range l {
		if h.OnPassEnd != nil {
			h.OnPassEnd(r)
		}
	}
}
