package host

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"clinical-backend/internal/shared/config"
	"clinical-backend/internal/shared/metrics"
	"clinical-backend/internal/shared/server"
	"clinical-backend/internal/shared/telemetry"
)

// State is the externally observable lifecycle state of a Host.
type State int32

const (
	StateNotRunning State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "not running"
}

// Options configures a Host.
type Options struct {
	Port            string
	Workers         int
	Handler         string
	ShutdownTimeout time.Duration
}

// OptionsFromConfig maps application config to host options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Port:            cfg.Port,
		Workers:         cfg.Workers,
		Handler:         cfg.AppHandler,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Host binds a TCP port and serves one named application handler through a fixed worker pool.
type Host struct {
	opts     Options
	registry *Registry
	pool     *pool

	state   atomic.Int32
	started atomic.Bool
	ready   chan struct{}
	addr    atomic.Value
}

func New(opts Options, registry *Registry) *Host {
	if opts.Port == "" {
		opts.Port = config.DefaultPort
	}
	if opts.Workers < 1 {
		opts.Workers = config.DefaultWorkers
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Host{
		opts:     opts,
		registry: registry,
		pool:     newPool(opts.Workers),
		ready:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (h *Host) State() State { return State(h.state.Load()) }

// Ready is closed once the host accepts connections.
func (h *Host) Ready() <-chan struct{} { return h.ready }

// Addr returns the bound listen address, or "" before startup.
func (h *Host) Addr() string {
	if v, ok := h.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Workers returns the size of the worker pool.
func (h *Host) Workers() int { return int(h.pool.size) }

// InFlight returns the number of worker slots currently held.
func (h *Host) InFlight() int { return int(h.pool.inFlight.Load()) }

// Run resolves the handler, binds the port and serves until ctx is cancelled.
// A Host runs at most once.
func (h *Host) Run(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	handler, err := h.registry.Resolve(ctx, h.opts.Handler)
	if err != nil {
		return &StartupFailure{Stage: StageResolve, Handler: h.opts.Handler, Err: err}
	}
	if c, ok := handler.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				telemetry.Warn("host.handler_close_failed", map[string]any{"handler": h.opts.Handler, "error": err})
			}
		}()
	}

	ln, err := net.Listen("tcp", server.Addr(h.opts.Port))
	if err != nil {
		return &StartupFailure{Stage: StageListen, Handler: h.opts.Handler, Err: err}
	}

	srv := &http.Server{
		Handler:           h.pool.wrap(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	h.addr.Store(ln.Addr().String())
	h.state.Store(int32(StateRunning))
	metrics.WorkersCapacity.Set(float64(h.pool.size))
	close(h.ready)
	telemetry.Info("host.started", map[string]any{
		"addr":    ln.Addr().String(),
		"handler": h.opts.Handler,
		"workers": h.Workers(),
	})
	defer func() {
		h.state.Store(int32(StateNotRunning))
		telemetry.Info("host.stopped", map[string]any{"handler": h.opts.Handler})
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
