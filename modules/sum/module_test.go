package sum

import (
	"context"
	"testing"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	reg := registry.New()
	reg.Use(&Module{})
	kind, ok := reg.Kind("sum")
	require.True(t, ok)
	assert.True(t, kind.VariadicInputs)

	b, err := kind.New(&Config{Bias: 0.5})
	require.NoError(t, err)
	g := graph.New()
	id, err := g.AddNode(kind.Spec("s", b, "a", "b", "c"))
	require.NoError(t, err)
	n, _ := g.Node(id)

	n.Input("a").Set(1.0)
	n.Input("b").Set(2)
	n.Input("c").Set("ignored")
	require.NoError(t, b.Update(context.Background(), n))
	assert.Equal(t, 3.5, n.Output("out").Get())
}
