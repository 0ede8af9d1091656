package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/testutil"
	"github.com/stretchr/testify/require"
)

// fixture bundles a graph, a scheduler over it and a recorder every node
// reports to.
type fixture struct {
	t   *testing.T
	g   *graph.Graph
	s   *Scheduler
	rec *testutil.Recorder
	// thread identifies the OS thread of a node update; zero where unsupported.
	thread func() int
}

type nodeOpt func(*graph.NodeSpec, *nodeBody)

type nodeBody struct {
	fn func(ctx context.Context, n *graph.Node) error
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logger, _ := testutil.NewLogger(t)
	g := graph.New()
	f := &fixture{
		t:      t,
		g:      g,
		s:      New(g, append([]Option{WithLogger(logger)}, opts...)...),
		rec:    testutil.NewRecorder(),
		thread: func() int { return 0 },
	}
	t.Cleanup(func() { _ = f.s.Stop() })
	return f
}

func inputs(names ...string) nodeOpt {
	return func(s *graph.NodeSpec, _ *nodeBody) { s.Inputs = names }
}

func later() nodeOpt {
	return func(s *graph.NodeSpec, _ *nodeBody) { s.Later = []string{"out"} }
}

func mainOnly() nodeOpt {
	return func(s *graph.NodeSpec, _ *nodeBody) { s.MainThreadOnly = true }
}

func alwaysDirty() nodeOpt {
	return func(s *graph.NodeSpec, _ *nodeBody) { s.AlwaysDirty = true }
}

func behavior(fn func(ctx context.Context, n *graph.Node) error) nodeOpt {
	return func(_ *graph.NodeSpec, b *nodeBody) { b.fn = fn }
}

// add creates a node with an "in" input and an "out" output. Unless a custom
// behavior is given, the node writes one plus the sum of its inputs.
func (f *fixture) add(name string, opts ...nodeOpt) graph.NodeID {
	f.t.Helper()
	spec := graph.NodeSpec{Name: name, Inputs: []string{"in"}, Outputs: []string{"out"}}
	body := &nodeBody{fn: propagate}
	for _, opt := range opts {
		opt(&spec, body)
	}
	fn := body.fn
	spec.Behavior = graph.BehaviorFunc(func(ctx context.Context, n *graph.Node) error {
		done := f.rec.Begin(n.Name, f.thread())
		defer done()
		return fn(ctx, n)
	})
	id, err := f.g.AddNode(spec)
	require.NoError(f.t, err)
	return id
}

func propagate(_ context.Context, n *graph.Node) error {
	sum := 1
	for _, id := range n.Inputs() {
		p, _ := n.Graph().Port(id)
		if v, ok := p.Get().(int); ok {
			sum += v
		}
	}
	n.Output("out").Set(sum)
	return nil
}

// link connects from.out to an input; to is "node" for node.in or a full
// "node.port" path.
func (f *fixture) link(from, to string) {
	f.t.Helper()
	if !strings.Contains(to, ".") {
		to += ".in"
	}
	require.NoError(f.t, f.g.AddLink(f.port(from+".out"), f.port(to)))
}

func (f *fixture) port(path string) graph.PortID {
	f.t.Helper()
	id, err := f.g.Lookup(path)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) cleanAll() {
	for _, n := range f.g.Nodes() {
		f.g.CleanNode(n.ID())
	}
}

// dirty marks node.in dirty the way a host would.
func (f *fixture) dirty(names ...string) {
	f.t.Helper()
	for _, name := range names {
		require.NoError(f.t, f.g.MarkDirty(f.port(name+".in")))
	}
}

func (f *fixture) value(path string) any {
	f.t.Helper()
	p, err := f.g.Port(f.port(path))
	require.NoError(f.t, err)
	return p.Get()
}

// update runs one pass and fails the test if it does not finish in time.
func (f *fixture) update() (PassReport, error) {
	f.t.Helper()
	type result struct {
		r   PassReport
		err error
	}
	ch := make(chan result, 1)
	go func() {
		r, err := f.s.Update(context.Background())
		ch <- result{r, err}
	}()
	select {
	case res := <-ch:
		return res.r, res.err
	case <-time.After(10 * time.Second):
		f.t.Fatal("pass did not terminate")
		return PassReport{}, nil
	}
}
