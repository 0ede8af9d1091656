// Package registry maps the node kinds named in graph files to the Go code
// that implements them.
//
// Each module registers one or more kinds: the ports a node of that kind
// owns, its scheduling flags, the config struct its extra attributes decode
// into, and a constructor for its behavior. The registry is populated at
// startup and validated before any graph file is loaded, so a kind whose
// config struct cannot be expressed as cty values fails early instead of
// halfway through a load.
package registry
