package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks(t *testing.T) {
	m := New()
	h := m.Hooks()

	h.OnTaskEnd(scheduler.TaskInfo{Node: "a", MainThread: true, Duration: time.Millisecond}, nil)
	h.OnTaskEnd(scheduler.TaskInfo{Node: "b", Duration: time.Millisecond}, errors.New("boom"))
	h.OnTaskEnd(scheduler.TaskInfo{Node: "c"}, &scheduler.TaskPanicError{Node: "c", Value: "x"})
	h.OnPassEnd(scheduler.PassReport{Pass: 1, Failed: []string{"b", "c"}, Skipped: []string{"d"}})
	h.OnPassEnd(scheduler.PassReport{Pass: 2, Carried: []string{"e"}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("panic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passes.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passes.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.passTasks.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passTasks.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passTasks.WithLabelValues("carried")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.taskDuration))
}

func TestWithScheduler(t *testing.T) {
	m := New()
	g := graph.New()
	for _, name := range []string{"a", "b"} {
		_, err := g.AddNode(graph.NodeSpec{
			Name:     name,
			Inputs:   []string{"in"},
			Outputs:  []string{"out"},
			Behavior: graph.BehaviorFunc(func(context.Context, *graph.Node) error { return nil }),
		})
		require.NoError(t, err)
	}
	out, _ := g.Lookup("a.out")
	in, _ := g.Lookup("b.in")
	require.NoError(t, g.AddLink(out, in))
	aIn, _ := g.Lookup("a.in")
	require.NoError(t, g.MarkDirty(aIn))

	s := scheduler.New(g, scheduler.WithHooks(m.Hooks()))
	_, err := s.Update(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tasks.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passes.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{MetricTasks, MetricPasses, MetricTaskDuration, MetricPassDuration} {
		assert.True(t, strings.Contains(body, namespace+"_"+name), name)
	}
}
