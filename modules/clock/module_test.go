package clock

import (
	"context"
	"testing"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	reg := registry.New()
	reg.Use(&Module{})
	kind, ok := reg.Kind("clock")
	require.True(t, ok)
	assert.True(t, kind.AlwaysDirty)

	cfg := kind.NewConfig().(*Config)
	cfg.Start = 10
	b, err := kind.New(cfg)
	require.NoError(t, err)

	g := graph.New()
	_, err = g.AddNode(kind.Spec("t", b))
	require.NoError(t, err)
	for _, n := range g.Nodes() {
		g.CleanNode(n.ID())
	}

	s := scheduler.New(g)
	for range 3 {
		_, err := s.Update(context.Background())
		require.NoError(t, err)
	}

	n, _ := g.NodeByName("t")
	assert.Equal(t, 12.0, n.Output("tick").Get(), "start + 2 steps")
	assert.Equal(t, int64(3), b.(*Clock).Ticks())
}
