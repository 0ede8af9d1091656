package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrPassRunning is returned by Update when another pass is in progress.
	ErrPassRunning = errors.New("a pass is already running")
	// ErrAlreadyStarted is returned by Init when the pool is running.
	ErrAlreadyStarted = errors.New("worker pool already started")
	// ErrPassFailed wraps the node failures of a pass.
	ErrPassFailed = errors.New("pass failed")
	// ErrStarvation reports dirty tasks that could never become ready. It
	// signals a scheduler defect, not a node failure.
	ErrStarvation = errors.New("dirty tasks were never scheduled")
	// ErrNoPass is returned by staging calls that need a running pass.
	ErrNoPass = errors.New("no pass is running")
)

// TaskPanicError is the error recorded for a node whose update panicked.
type TaskPanicError struct {
	Node  string
	Value any
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.Node, e.Value)
}
