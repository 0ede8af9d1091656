// Package monitor streams pass reports to a socket.io server so a dashboard
// can follow a running graph live.
package monitor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the event name pass reports are emitted under.
const DefaultEvent = "pass"

// ErrConnect wraps every failure to establish the connection.
var ErrConnect = errors.New("socket.io connection failed")

// Config describes the monitor endpoint.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Publisher emits one event per finished pass.
type Publisher struct {
	event  string
	emit   func(event string, payload any)
	close  func()
	logger *slog.Logger
	sent   atomic.Int64
}

// Dial connects to the socket.io server and waits for the namespace to
// accept the connection.
func Dial(ctx context.Context, cfg Config) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("component", "monitor", "url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q has no scheme or host", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Monitor connected", "sid", io.Id())
		signal(connected, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("unknown error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		signal(connected, err)
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("%w: %w", ErrConnect, err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("%w: %w", ErrConnect, ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("%w: timed out after %s", ErrConnect, timeout)
	}

	return newPublisher(cfg.Event, logger,
		func(event string, payload any) { io.Emit(event, payload) },
		func() { io.Disconnect() },
	), nil
}

// signal reports the first connection outcome; later ones are dropped.
func signal(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func newPublisher(event string, logger *slog.Logger, emit func(string, any), close func()) *Publisher {
	if event == "" {
		event = DefaultEvent
	}
	return &Publisher{event: event, emit: emit, close: close, logger: logger}
}

// Hooks returns the scheduler hooks that publish pass reports.
func (p *Publisher) Hooks() scheduler.Hooks {
	return scheduler.Hooks{OnPassEnd: p.Publish}
}

// Publish emits one report.
func (p *Publisher) Publish(r scheduler.PassReport) {
	p.emit(p.event, Payload(r))
	n := p.sent.Add(1)
	p.logger.Debug("Pass report published.", "pass", r.Pass, "sent", n)
}

// Sent returns the number of reports published.
func (p *Publisher) Sent() int64 {
	return p.sent.Load()
}

// Close disconnects from the server.
func (p *Publisher) Close() {
	p.logger.Debug("Disconnecting monitor")
	p.close()
}

// Payload is the JSON-friendly form of a report.
func Payload(r scheduler.PassReport) map[string]any {
	return map[string]any{
		"pass":        r.Pass,
		"ran":         r.Ran,
		"failed":      nonNil(r.Failed),
		"skipped":     nonNil(r.Skipped),
		"carried":     nonNil(r.Carried),
		"starved":     nonNil(r.Starved),
		"duration_ms": float64(r.Duration) / float64(time.Millisecond),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
