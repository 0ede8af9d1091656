// Package scheduler drives evaluation passes over a dataflow graph.
//
// # Why Scheduler Exists
//
// A pass must run every dirty node exactly once, after all of its dirty
// immediate upstream nodes, using every available core, while keeping
// rendering-bound nodes on the goroutine that owns the rendering context. The
// scheduler owns that contract; node behaviors stay black boxes.
//
// # How It Works
//
// The graph is compiled once into a task.Program and reused until SetDirty
// is called or the graph version changes. Each pass then:
//
//  1. Resets every task to its compiled snapshot (dirty flag + counter).
//  2. Stages ports the host marked dirty since the last pass, plus tasks
//     carried over from the previous pass.
//  3. Seeds two FIFO ready queues (shared, main-thread-only) with every dirty
//     task whose counter is zero.
//  4. Lets the worker pool drain the shared queue while the calling goroutine
//     drains the main queue first and the shared queue second.
//  5. On each completion, decrements downstream counters, enqueues tasks that
//     reach zero, and applies the deferred edges of the task's "later"
//     outputs.
//  6. Ends when no task is active and both queues are empty, then clears the
//     dirty flags of everything that ran.
//
// # Task States
//
//	idle ──▶ pending ──▶ queued ──▶ running ──▶ done
//	           ▲                                  │
//	           └──────── SetDataDirty (re-arm) ───┘
//
// Only a pending task with a zero counter is enqueued, which makes
// enqueueing happen once per arming. Normal propagation never re-arms a done
// task; it carries it over to the next pass instead. Manual staging
// (SetDataDirty) re-arms done tasks so a node can drive sub-iterations.
//
// # Nested Evaluation
//
// A node may call WaitForOtherTasks from inside its update. The call turns
// the caller into an extra worker until it is the only active task left and
// nothing is queued. Together with SetDataDirty/SetDataReady this lets a node
// re-evaluate a docked subtree several times within one pass.
//
// # Thread-Safety
//
// All pass state lives behind one mutex paired with a condition variable.
// Node updates run outside the lock. Graph topology must not change while a
// pass is running.
package scheduler
