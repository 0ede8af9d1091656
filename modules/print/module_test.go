package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	reg := registry.New()
	reg.Use(&Module{Out: &out})
	kind, ok := reg.Kind("print")
	require.True(t, ok)

	g := graph.New()
	labelled, err := kind.New(&Config{Label: "total"})
	require.NoError(t, err)
	plain, err := kind.New(&Config{})
	require.NoError(t, err)
	a, err := g.AddNode(kind.Spec("a", labelled))
	require.NoError(t, err)
	b, err := g.AddNode(kind.Spec("b", plain))
	require.NoError(t, err)

	na, _ := g.Node(a)
	nb, _ := g.Node(b)
	na.Input("in").Set(3.0)
	require.NoError(t, labelled.Update(context.Background(), na))
	require.NoError(t, plain.Update(context.Background(), nb))

	assert.Equal(t, "total = 3\nb = (null)\n", out.String())
}
