package hclgraph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/specialistvlad/pulsegraph/internal/testutil"
	"github.com/specialistvlad/pulsegraph/modules/buffer"
	"github.com/specialistvlad/pulsegraph/modules/clock"
	"github.com/specialistvlad/pulsegraph/modules/constant"
	"github.com/specialistvlad/pulsegraph/modules/sum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	reg := registry.New()
	reg.Use(&clock.Module{}, &constant.Module{}, &sum.Module{}, &buffer.Module{})
	require.NoError(t, reg.ValidateRegistry(context.Background()))
	return NewLoader(reg)
}

func TestLoad_Directory(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"sources.hcl": `
			node "clock" "t" {}
			node "constant" "one" { value = 1 }
		`,
		"nested/math.hcl": `
			node "sum" "acc" {
			  inputs = { a = "t.tick", b = "fb.out", c = "one.out" }
			}
			node "buffer" "fb" { inputs = { in = "acc.out" } }
		`,
		"README.md": "not a graph file",
	})

	loaded, err := newTestLoader(t).Load(context.Background(), dir)
	require.NoError(t, err)
	g := loaded.Graph

	assert.Len(t, loaded.Files, 2)
	assert.Equal(t, 4, g.Len())
	assert.Len(t, loaded.Behaviors, 4)

	acc, ok := g.NodeByName("acc")
	require.True(t, ok)
	assert.Equal(t, "sum", acc.Kind)
	require.Len(t, acc.Inputs(), 3)
	for i, name := range []string{"a", "b", "c"} {
		p, _ := g.Port(acc.Inputs()[i])
		assert.Equal(t, name, p.Name, "variadic inputs are added in sorted order")
	}

	fbOut, err := g.Lookup("fb.out")
	require.NoError(t, err)
	assert.Equal(t, graph.Deferred, g.LinkKind(fbOut))
	tick, err := g.Lookup("t.tick")
	require.NoError(t, err)
	assert.Equal(t, graph.Immediate, g.LinkKind(tick))

	for _, n := range g.Nodes() {
		assert.True(t, g.NodeDirty(n.ID()), "%s starts dirty", n.Name)
	}
}

func TestLoad_SingleFile(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl": `node "constant" "a" {}`,
		"b.hcl": `node "constant" "b" {}`,
	})
	loaded, err := newTestLoader(t).Load(context.Background(), filepath.Join(dir, "a.hcl"), filepath.Join(dir, "a.hcl"))
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Graph.Len())
}

func TestLoad_ConfigDecoding(t *testing.T) {
	t.Setenv("PG_START", "3")
	loaded, err := newTestLoader(t).LoadSource(context.Background(), "main.hcl", []byte(`
		node "clock" "t" {
		  start = env.PG_START
		  step  = 0.5
		}
		node "constant" "c" { value = 2.5 }
	`))
	require.NoError(t, err)

	ctx := context.Background()
	for _, name := range []string{"t", "c"} {
		n, ok := loaded.Graph.NodeByName(name)
		require.True(t, ok)
		require.NoError(t, loaded.Behaviors[name].Update(ctx, n))
	}
	tNode, _ := loaded.Graph.NodeByName("t")
	assert.Equal(t, 3.0, tNode.Output("tick").Get())
	require.NoError(t, loaded.Behaviors["t"].Update(ctx, tNode))
	assert.Equal(t, 3.5, tNode.Output("tick").Get())

	cNode, _ := loaded.Graph.NodeByName("c")
	assert.Equal(t, 2.5, cNode.Output("out").Get())
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		target  error
		message string
	}{
		{name: "unknown kind", src: `node "nope" "x" {}`, target: ErrUnknownKind},
		{name: "unsupported attribute", src: `node "constant" "x" { colour = 1 }`, message: `unsupported attribute "colour"`},
		{name: "type mismatch", src: `node "buffer" "x" { initial = 1 }
			node "constant" "y" { value = "abc" }`, message: `attribute "value"`},
		{name: "unknown link source", src: `node "buffer" "x" { inputs = { in = "ghost.out" } }`, target: graph.ErrUnknownNode},
		{name: "fixed inputs", src: `node "buffer" "x" { inputs = { other = "x.out" } }`, message: `has no input "other"`},
		{name: "duplicate node", src: `node "constant" "x" {}
			node "constant" "x" {}`, target: graph.ErrDuplicateNode},
		{name: "link into output", src: `node "constant" "a" {}
			node "sum" "s" { inputs = { a = "a.in" } }`, target: graph.ErrUnknownPort},
		{name: "syntax", src: `node "constant" {`, message: "failed to parse"},
		{name: "nested block", src: `node "constant" "x" {
			  extra {}
			}`, message: `node "x"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestLoader(t).LoadSource(context.Background(), "main.hcl", []byte(tc.src))
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
			if tc.message != "" {
				assert.ErrorContains(t, err, tc.message)
			}
		})
	}
}

func TestLoad_Paths(t *testing.T) {
	l := newTestLoader(t)

	_, err := l.Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "error accessing path")
}
