// Package hclgraph loads dataflow graphs from HCL files.
//
// A graph file is a list of node blocks. The first label names a kind from
// the registry, the second names the node. The optional inputs attribute
// maps input ports to "node.port" paths of outputs; every other attribute is
// decoded into the kind's config struct:
//
//	node "clock" "t" { step = 0.5 }
//	node "sum" "acc" {
//	  inputs = { a = "t.tick", b = "fb.out" }
//	}
//	node "buffer" "fb" { inputs = { in = "acc.out" } }
//
// Attribute expressions may reference env.NAME for process environment
// variables. Nodes may be spread over several files; links are resolved once
// every file is parsed. Every port of a freshly loaded graph is dirty, so the
// first pass evaluates everything.
package hclgraph
