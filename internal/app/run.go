package app

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/monitor"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
)

// Run starts the worker pool and executes the configured passes on the
// calling goroutine, which acts as the main thread. Cancelling ctx ends an
// unbounded run cleanly after the current pass.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer func() {
		if cerr := a.closeHealthCheckServer(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	opts := []scheduler.Option{
		scheduler.WithLogger(a.logger),
		scheduler.WithHooks(a.metrics.Hooks()),
	}
	if a.config.MonitorURL != "" {
		pub, err := monitor.Dial(ctx, monitor.Config{URL: a.config.MonitorURL})
		if err != nil {
			return fmt.Errorf("failed to start monitor: %w", err)
		}
		defer pub.Close()
		opts = append(opts, scheduler.WithHooks(pub.Hooks()))
	}

	if a.loaded.Graph.Len() == 0 {
		a.logger.Warn("No nodes found in graph, execution not required.")
		return nil
	}

	s := scheduler.New(a.loaded.Graph, opts...)
	if err := s.Init(a.config.Threads); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		if serr := s.Stop(); serr != nil && err == nil {
			err = serr
		}
	}()

	a.logger.Info("🚀 Starting passes...", "workers", s.Workers(), "passes", a.config.Passes)
	for n := 1; a.config.Passes == 0 || n <= a.config.Passes; n++ {
		report, err := s.Update(ctx)
		if err != nil {
			return fmt.Errorf("pass %d failed: %w", report.Pass, err)
		}
		a.logger.Info("Pass complete.", "pass", report.Pass, "ran", report.Ran, "carried", len(report.Carried), "duration", report.Duration)

		if n == a.config.Passes {
			break
		}
		if !a.sleep(ctx) {
			a.logger.Info("Run cancelled.", "reason", context.Cause(ctx))
			break
		}
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}

// sleep waits out the pass interval. It reports false once ctx is done.
func (a *App) sleep(ctx context.Context) bool {
	if a.config.Interval <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(a.config.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
