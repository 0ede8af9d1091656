// Package graph holds the live dataflow graph: nodes, their typed ports and
// the parent -> child links between ports.
//
// # Why Graph Package Exists
//
// The scheduler needs a dependency structure that is cheap to walk and free of
// ownership hazards. Nodes and ports therefore live in an arena owned by
// Graph and are addressed by small integer handles (NodeID, PortID). Links are
// stored as index slices on the ports, never as pointers between ports.
//
// # Dirty Propagation
//
// Every port carries a dirty bit. MarkDirty sets it and walks downstream:
//
//	output port ──link──▶ input port ──owner node──▶ output ports ──▶ ...
//
// The walk stops at ports that are already dirty, which bounds the cost of
// repeated marking to the part of the graph that was clean. Links leaving a
// port its node declared as "later" are Deferred links and are not followed;
// the scheduler applies them only when the producing node finishes.
//
// # Thread-Safety
//
// Topology (AddNode, AddLink, RemoveLink) is single-threaded and must only be
// mutated outside a scheduler pass. Dirty bits and port values are safe for
// concurrent use, since node updates running on different workers read and
// write them during a pass.
package graph
