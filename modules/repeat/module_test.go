package repeat_test

import (
	"context"
	"sync"
	"testing"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/hclgraph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
	"github.com/specialistvlad/pulsegraph/modules/repeat"
	"github.com/specialistvlad/pulsegraph/modules/sum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordModule registers a "record" sink that remembers every value it sees.
type recordModule struct {
	mu   sync.Mutex
	seen []any
}

func (m *recordModule) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{
		Name:   "record",
		Inputs: []string{"in"},
		New: func(any) (graph.Behavior, error) {
			return graph.BehaviorFunc(func(_ context.Context, n *graph.Node) error {
				m.mu.Lock()
				defer m.mu.Unlock()
				m.seen = append(m.seen, n.Input("in").Get())
				return nil
			}), nil
		},
	})
}

func TestRepeat_DrivesSubtree(t *testing.T) {
	rec := &recordModule{}
	reg := registry.New()
	reg.Use(&repeat.Module{}, &sum.Module{}, rec)
	l, err := hclgraph.NewLoader(reg).LoadSource(context.Background(), "main.hcl", []byte(`
		node "repeat" "loop" { count = 4 }
		node "sum" "scaled" {
		  inputs = { i = "loop.iter" }
		  bias   = 100
		}
		node "record" "sink" { inputs = { in = "scaled.out" } }
	`))
	require.NoError(t, err)

	s := scheduler.New(l.Graph)
	require.NoError(t, s.Init(2))
	t.Cleanup(func() { _ = s.Stop() })

	_, err = s.Update(context.Background())
	require.NoError(t, err)

	// The first pass also evaluates the freshly loaded subtree once on its own.
	assert.Subset(t, rec.seen, []any{100.0, 101.0, 102.0, 103.0})
	n, _ := l.Graph.NodeByName("loop")
	assert.Equal(t, 4.0, n.Output("iterations").Get())

	rec.seen = nil
	require.NoError(t, l.Graph.MarkDirty(n.Input("count").ID()))
	report, err := s.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{100.0, 101.0, 102.0, 103.0}, rec.seen)
	assert.Equal(t, 9, report.Ran)

	report, err = s.Update(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Ran)
}

func TestRepeat_NegativeCount(t *testing.T) {
	reg := registry.New()
	reg.Use(&repeat.Module{})
	_, err := hclgraph.NewLoader(reg).LoadSource(context.Background(), "main.hcl", []byte(`node "repeat" "r" { count = -1 }`))
	assert.ErrorIs(t, err, repeat.ErrCount)
}

func TestRepeat_OutsideScheduler(t *testing.T) {
	reg := registry.New()
	reg.Use(&repeat.Module{})
	l, err := hclgraph.NewLoader(reg).LoadSource(context.Background(), "main.hcl", []byte(`node "repeat" "r" { count = 2 }`))
	require.NoError(t, err)
	n, _ := l.Graph.NodeByName("r")

	require.NoError(t, l.Behaviors["r"].Update(context.Background(), n))
	assert.Equal(t, 1.0, n.Output("iter").Get())
	assert.Equal(t, 2.0, n.Output("iterations").Get())
}
