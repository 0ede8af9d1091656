package buffer_test

import (
	"context"
	"testing"

	"github.com/specialistvlad/pulsegraph/internal/hclgraph"
	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
	"github.com/specialistvlad/pulsegraph/modules/buffer"
	"github.com/specialistvlad/pulsegraph/modules/constant"
	"github.com/specialistvlad/pulsegraph/modules/sum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, src string) *hclgraph.Loaded {
	t.Helper()
	reg := registry.New()
	reg.Use(&buffer.Module{}, &constant.Module{}, &sum.Module{})
	loaded, err := hclgraph.NewLoader(reg).LoadSource(context.Background(), "main.hcl", []byte(src))
	require.NoError(t, err)
	return loaded
}

func value(t *testing.T, l *hclgraph.Loaded, path string) any {
	t.Helper()
	id, err := l.Graph.Lookup(path)
	require.NoError(t, err)
	p, err := l.Graph.Port(id)
	require.NoError(t, err)
	return p.Get()
}

func TestBuffer_FeedbackLoop(t *testing.T) {
	l := load(t, `
		node "constant" "one" { value = 1 }
		node "sum" "acc" {
		  inputs = { a = "one.out", b = "fb.out" }
		}
		node "buffer" "fb" { inputs = { in = "acc.out" } }
	`)
	s := scheduler.New(l.Graph)

	for pass := 1; pass <= 3; pass++ {
		report, err := s.Update(context.Background())
		require.NoError(t, err)
		assert.Equal(t, float64(pass), value(t, l, "acc.out"))
		assert.ElementsMatch(t, []string{"acc", "fb"}, report.Carried, "the loop re-runs while the value changes")
	}
}

func TestBuffer_Settles(t *testing.T) {
	l := load(t, `
		node "constant" "one" { value = 1 }
		node "buffer" "fb" { inputs = { in = "one.out" } }
		node "sum" "view" {
		  inputs = { a = "fb.out" }
		}
	`)
	s := scheduler.New(l.Graph)

	_, err := s.Update(context.Background())
	require.NoError(t, err)
	report, err := s.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, value(t, l, "view.out"))
	assert.Equal(t, 1, report.Ran)

	report, err = s.Update(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Ran)
}
