package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/executor"
	"github.com/specialistvlad/pulsegraph/internal/graph"
	"github.com/specialistvlad/pulsegraph/internal/task"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for pass and task diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks adds an observer. It may be given several times.
func WithHooks(h Hooks) Option {
	return func(s *Scheduler) {
		s.hooks = append(s.hooks, h)
	}
}

// Scheduler runs evaluation passes over one graph.
type Scheduler struct {
	g      *graph.Graph
	logger *slog.Logger
	hooks  hookList

	mu       sync.Mutex
	cond     *sync.Cond
	prog     *task.Program
	stale    bool
	pass     *pass
	passes   uint64
	pool     *executor.Pool
	stopping bool
}

// New returns a scheduler for g. The worker pool is not started until Init;
// until then passes run on the calling goroutine alone.
func New(g *graph.Graph, opts ...Option) *Scheduler {
	s := &Scheduler{
		g:      g,
		logger: ctxlog.FromContext(context.Background()),
		stale:  true,
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init starts threadCount workers. Zero or less picks executor.DefaultSize.
func (s *Scheduler) Init(threadCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return ErrAlreadyStarted
	}
	ctx := ctxlog.WithLogger(context.Background(), s.logger)
	s.pool = executor.Start(ctx, threadCount, s.work)
	s.logger.Debug("Scheduler initialized.", "workers", s.pool.Size())
	return nil
}

// Stop joins the worker pool. A pass in progress finishes on the goroutine
// that called Update.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	pool := s.pool
	if pool == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	s.cond.Broadcast()
	s.mu.Unlock()

	err := pool.Wait()

	s.mu.Lock()
	s.pool = nil
	s.stopping = false
	s.mu.Unlock()
	s.logger.Debug("Scheduler stopped.")
	return err
}

// Workers returns the size of the running pool, or zero.
func (s *Scheduler) Workers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return 0
	}
	return s.pool.Size()
}

// SetDirty drops the compiled program. The next Update recompiles.
func (s *Scheduler) SetDirty() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Program returns the compiled program, compiling it first if needed.
func (s *Scheduler) Program() (*task.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program()
}

func (s *Scheduler) program() (*task.Program, error) {
	if !s.stale && !s.prog.Stale(s.g) {
		return s.prog, nil
	}
	prog, err := task.Compile(s.g, task.AlwaysDirtyRoots(s.g))
	if err != nil {
		return nil, fmt.Errorf("compiling graph: %w", err)
	}
	s.prog = prog
	s.stale = false
	s.logger.Debug("Graph compiled.", "tasks", len(prog.Tasks), "deferred", len(prog.Deferred))
	return prog, nil
}

// Update runs one pass: every dirty node is updated once after its dirty
// immediate upstream nodes. The calling goroutine works as the main worker
// and is the only one allowed to run main-thread-only nodes.
func (s *Scheduler) Update(ctx context.Context) (PassReport, error) {
	s.mu.Lock()
	if s.pass != nil {
		s.mu.Unlock()
		return PassReport{}, ErrPassRunning
	}
	prog, err := s.program()
	if err != nil {
		s.mu.Unlock()
		return PassReport{}, err
	}

	staged := s.g.DirtyPorts()
	s.passes++
	p := newPass(ctx, s.passes, prog, s.g)
	p.stage(staged)
	p.seed()
	s.pass = p
	s.cond.Broadcast()
	s.logger.Debug("Pass started.", "pass", p.number, "ready", p.ready.shared.len()+p.ready.main.len())

	for !p.finished() {
		if idx, ok := p.next(true); ok {
			s.run(p, idx, true)
			continue
		}
		s.cond.Wait()
	}
	s.pass = nil
	report := p.complete()
	errs := p.errs
	s.mu.Unlock()

	err = passError(report, errs)
	if len(report.Starved) > 0 {
		s.logger.Error("Dirty tasks were never scheduled.", "pass", report.Pass, "tasks", report.Starved)
	}
	s.logger.Debug("Pass finished.",
		"pass", report.Pass,
		"ran", report.Ran,
		"failed", len(report.Failed),
		"skipped", len(report.Skipped),
		"carried", len(report.Carried),
		"duration", report.Duration,
	)
	s.hooks.passEnd(report)
	return report, err
}

func passError(r PassReport, errs []error) error {
	var out []error
	if len(errs) > 0 {
		out = append(out, fmt.Errorf("%w: %w", ErrPassFailed, errors.Join(errs...)))
	}
	if len(r.Starved) > 0 {
		out = append(out, fmt.Errorf("%w: %s", ErrStarvation, strings.Join(r.Starved, ", ")))
	}
	return errors.Join(out...)
}

// work is the body of every pool worker. Pool workers only see the shared
// queue.
func (s *Scheduler) work(ctx context.Context, workerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.stopping {
		p := s.pass
		if p == nil {
			s.cond.Wait()
			continue
		}
		if idx, ok := p.next(false); ok {
			s.run(p, idx, false)
			continue
		}
		s.cond.Wait()
	}
}

// run executes a task that next already marked running. It is called and
// returns with s.mu held.
func (s *Scheduler) run(p *pass, idx int, isMain bool) {
	s.mu.Unlock()
	err := s.execute(p, idx, isMain)
	s.mu.Lock()
	p.finish(idx, err)
	s.cond.Broadcast()
}

func (s *Scheduler) execute(p *pass, idx int, isMain bool) error {
	t := &p.prog.Tasks[idx]
	info := TaskInfo{Pass: p.number, Index: idx, Node: t.Name, MainThread: isMain}
	s.hooks.taskStart(info)

	start := time.Now()
	err := s.invoke(p, t, isMain)
	info.Duration = time.Since(start)

	if err != nil {
		s.logger.Error("Node update failed.", "pass", p.number, "node", t.Name, "error", err)
	}
	s.hooks.taskEnd(info, err)
	return err
}

func (s *Scheduler) invoke(p *pass, t *task.Task, isMain bool) (err error) {
	n, err := s.g.Node(t.Node)
	if err != nil {
		return err
	}
	if n.Behavior == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanicError{Node: t.Name, Value: r, Stack: debug.Stack()}
		}
	}()

	rt := &Runtime{s: s, p: p, task: t.Index, main: isMain}
	ctx := withRuntime(p.ctx, rt)
	ctx = ctxlog.WithLogger(ctx, s.logger.With("node", t.Name))
	return n.Behavior.Update(ctx, n)
}
