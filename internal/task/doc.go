// Package task compiles a live graph into the flat task list the scheduler
// executes once per pass.
//
// # Why Task Package Exists
//
// Walking pointers between ports on every pass is slow and makes concurrent
// bookkeeping awkward. Compile turns the graph into a Program: one Task per
// node, addressed by index, with its immediate upstream/downstream indices,
// its start-of-pass dirty flag and dependency counter, and a table of
// deferred edges. The Program is reused pass after pass until the topology
// changes.
//
// # How It Works
//
//  1. Order every node with Kahn's algorithm over immediate links. A cycle of
//     immediate links is a compile error; deferred links are ignored here.
//  2. Walk breadth-first from the dirty roots over immediate links to find the
//     tasks dirty at pass start. Each dirty task's counter is the number of
//     distinct dirty immediate upstream tasks.
//  3. For every output port declared "later", record a DeferredEdge with the
//     downstream ports, their tasks and the immediate closure below them. The
//     scheduler applies it only after the producing task finishes.
package task
