package hclgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/fsutil"
	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// ErrNoFiles is returned when the given paths hold no .hcl files.
var ErrNoFiles = errors.New("no .hcl graph files found")

// ErrUnknownKind is returned for a node block naming an unregistered kind.
var ErrUnknownKind = errors.New("unknown node kind")

// fileRoot is a struct used to decode all top-level blocks from any file.
type fileRoot struct {
	Nodes  []*nodeBlock `hcl:"node,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type nodeBlock struct {
	Kind   string            `hcl:"kind,label"`
	Name   string            `hcl:"name,label"`
	Inputs map[string]string `hcl:"inputs,optional"`
	Remain hcl.Body          `hcl:",remain"`
}

// Loaded is the result of a load.
type Loaded struct {
	Graph *graph.Graph
	// Behaviors maps node names to the behaviors built for them, so hosts
	// and tests can reach node state.
	Behaviors map[string]graph.Behavior
	Files     []string
}

// Loader builds graphs from HCL using the kinds of a registry.
type Loader struct {
	reg *registry.Registry
}

// NewLoader creates a loader for the kinds in reg.
func NewLoader(reg *registry.Registry) *Loader {
	return &Loader{reg: reg}
}

// Load reads every .hcl file under paths. A path may be a file or a
// directory, which is searched recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Loaded, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var bodies []hcl.Body
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		bodies = append(bodies, f.Body)
	}

	loaded, err := l.build(ctx, bodies)
	if err != nil {
		return nil, err
	}
	loaded.Files = files
	return loaded, nil
}

// LoadSource loads a graph from a single in-memory file.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*Loaded, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	loaded, err := l.build(ctx, []hcl.Body{f.Body})
	if err != nil {
		return nil, err
	}
	loaded.Files = []string{filename}
	return loaded, nil
}

func (l *Loader) build(ctx context.Context, bodies []hcl.Body) (*Loaded, error) {
	logger := ctxlog.FromContext(ctx)
	ectx := evalContext()

	var blocks []*nodeBlock
	for _, body := range bodies {
		var root fileRoot
		if diags := gohcl.DecodeBody(body, ectx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %w", diags)
		}
		blocks = append(blocks, root.Nodes...)
	}

	g := graph.New()
	loaded := &Loaded{Graph: g, Behaviors: make(map[string]graph.Behavior)}
	for _, b := range blocks {
		behavior, err := l.addNode(g, b, ectx)
		if err != nil {
			return nil, err
		}
		loaded.Behaviors[b.Name] = behavior
	}
	for _, b := range blocks {
		if err := link(g, b); err != nil {
			return nil, err
		}
	}
	for _, n := range g.Nodes() {
		for _, ports := range [][]graph.PortID{n.Inputs(), n.Outputs()} {
			for _, id := range ports {
				if err := g.MarkDirty(id); err != nil {
					return nil, fmt.Errorf("node %q: %w", n.Name, err)
				}
			}
		}
	}

	logger.Debug("HCL loading complete.", "nodes", g.Len())
	return loaded, nil
}

func (l *Loader) addNode(g *graph.Graph, b *nodeBlock, ectx *hcl.EvalContext) (graph.Behavior, error) {
	where := b.Remain.MissingItemRange().String()
	kind, ok := l.reg.Kind(b.Kind)
	if !ok {
		return nil, fmt.Errorf("%s: node %q: %w %q", where, b.Name, ErrUnknownKind, b.Kind)
	}

	attrs, diags := b.Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("node %q: %w", b.Name, diags)
	}
	var cfg any
	if kind.NewConfig != nil {
		cfg = kind.NewConfig()
	}
	if err := decodeConfig(attrs, ectx, cfg); err != nil {
		return nil, fmt.Errorf("%s: node %q: %w", where, b.Name, err)
	}

	behavior, err := kind.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: node %q: %w", where, b.Name, err)
	}

	extra, err := extraInputs(kind, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}
	if _, err := g.AddNode(kind.Spec(b.Name, behavior, extra...)); err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}
	return behavior, nil
}

// extraInputs returns the inputs a block declares beyond its kind's, sorted.
func extraInputs(kind *registry.Kind, b *nodeBlock) ([]string, error) {
	declared := make(map[string]bool, len(kind.Inputs))
	for _, in := range kind.Inputs {
		declared[in] = true
	}
	var extra []string
	for in := range b.Inputs {
		if declared[in] {
			continue
		}
		if !kind.VariadicInputs {
			return nil, fmt.Errorf("node %q: kind %q has no input %q", b.Name, kind.Name, in)
		}
		extra = append(extra, in)
	}
	sort.Strings(extra)
	return extra, nil
}

func link(g *graph.Graph, b *nodeBlock) error {
	names := make([]string, 0, len(b.Inputs))
	for in := range b.Inputs {
		names = append(names, in)
	}
	sort.Strings(names)

	for _, in := range names {
		from := b.Inputs[in]
		parent, err := g.Lookup(from)
		if err != nil {
			return fmt.Errorf("node %q input %q: %w", b.Name, in, err)
		}
		child, err := g.Lookup(b.Name + "." + in)
		if err != nil {
			return fmt.Errorf("node %q input %q: %w", b.Name, in, err)
		}
		if err := g.AddLink(parent, child); err != nil {
			return fmt.Errorf("node %q input %q: %w", b.Name, in, err)
		}
	}
	return nil
}

// evalContext exposes the process environment as env.NAME.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && hclIdentifier(name) {
			env[name] = cty.StringVal(value)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}

func hclIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		var found []string
		if info.IsDir() {
			found, err = fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
		} else if strings.HasSuffix(path, ".hcl") {
			found = []string{path}
		}
		for _, f := range found {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				all = append(all, f)
			}
		}
	}
	return all, nil
}
