package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/config"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/metrics"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/services"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/utils"
)

// Connector opens the backing services the application needs. A nil
// *services.Dependencies with a nil error means there are none.
type Connector func(ctx context.Context, cfg *config.Config) (*services.Dependencies, error)

// Option customizes a Runner.
type Option func(*Runner)

// WithConnector replaces services.Connect.
func WithConnector(connect Connector) Option {
	return func(r *Runner) {
		r.connect = connect
	}
}

// WithRoutes registers the hosted application's routes on the Fiber app
// before it starts serving.
func WithRoutes(register func(app *fiber.App)) Option {
	return func(r *Runner) {
		r.routes = append(r.routes, register)
	}
}

// WithStartTime sets the reference time for uptime and startup duration.
func WithStartTime(t time.Time) Option {
	return func(r *Runner) {
		r.startTime = t
	}
}

// Runner binds the listener, starts the application and serves it until the
// context is cancelled.
type Runner struct {
	cfg       *config.Config
	connect   Connector
	startTime time.Time
	ready     *ReadyState
	routes    []func(app *fiber.App)

	mu   sync.RWMutex
	addr net.Addr
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		connect:   services.Connect,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ready = NewReadyState(r.startTime)
	return r
}

// ReadyState exposes the lifecycle state served by the health endpoints.
func (r *Runner) ReadyState() *ReadyState {
	return r.ready
}

// Addr returns the bound listener address, or nil before binding.
func (r *Runner) Addr() net.Addr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.addr
}

// Start binds the configured port, initializes the application and serves
// until ctx is cancelled. It then stops accepting connections, waits up to
// the shutdown grace period for in-flight requests and returns nil. Startup
// failures are returned as *BindError or *ApplicationInitError.
func (r *Runner) Start(ctx context.Context) error {
	cfg := r.cfg
	utils.LogInfo("[STARTUP] Starting runner", "service", cfg.ServiceName, "addr", cfg.Address())

	ln, err := Listen(ctx, cfg.Host, cfg.Port)
	if err != nil {
		r.ready.SetState(StateStopped)
		return err
	}
	r.mu.Lock()
	r.addr = ln.Addr()
	r.mu.Unlock()

	deps, err := r.connect(ctx, cfg)
	if err != nil && ctx.Err() != nil {
		_ = ln.Close()
		r.ready.SetState(StateStopped)
		utils.LogInfo("[SHUTDOWN] Stopped during startup", "reason", ctx.Err())
		return nil
	}
	if err != nil {
		_ = ln.Close()
		r.ready.SetState(StateStopped)
		metrics.IncrementError("init", "dependencies")

		component := "dependencies"
		var depErr *services.DependencyError
		if errors.As(err, &depErr) {
			component = depErr.Name
		}
		return &ApplicationInitError{Component: component, Err: err}
	}
	if deps == nil {
		deps = services.NewDependencies()
	}
	r.trackDependencies(deps)

	app := CreateFiberApp(cfg, r.ready, deps.Redis())
	for _, register := range r.routes {
		register(app)
	}

	r.ready.SetState(StateServing)
	startup := time.Since(r.startTime)
	metrics.RecordStartup(startup)
	utils.LogInfo("[STARTUP] Serving", "service", cfg.ServiceName, "addr", ln.Addr().String(), "startup_time", startup)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := app.Listener(ln)
		if err != nil && gctx.Err() == nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return services.ProbeLoop(gctx, deps.All(), cfg.ProbeInterval, cfg.DependencyTimeout, r.ready.ReportProbe)
	})

	g.Go(func() error {
		<-gctx.Done()
		r.ready.SetState(StateStopped)
		utils.LogInfo("[SHUTDOWN] Stopping HTTP server", "grace", cfg.ShutdownGrace)

		if err := app.ShutdownWithTimeout(cfg.ShutdownGrace); err != nil {
			utils.LogError("[SHUTDOWN] Grace period elapsed with requests in flight", err)
		}
		// Unblocks Serve if shutdown raced ahead of it.
		_ = ln.Close()
		return nil
	})

	err = g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.DependencyTimeout)
	defer cancel()
	if closeErr := deps.Close(closeCtx); closeErr != nil {
		utils.LogError("[SHUTDOWN] Closing dependencies", closeErr)
	}

	if err != nil {
		metrics.IncrementError("serve", "listener")
		return err
	}
	utils.LogInfo("[SHUTDOWN] Stopped", "uptime", r.ready.Uptime())
	return nil
}

func (r *Runner) trackDependencies(deps *services.Dependencies) {
	configured := map[string]bool{
		services.Postgres: r.cfg.DatabaseURL != "",
		services.Redis:    r.cfg.RedisURL != "",
		services.Mongo:    r.cfg.MongoURI != "",
	}
	for name, ok := range configured {
		if !ok {
			r.ready.MarkUnconfigured(name)
		}
	}
	for _, dep := range deps.All() {
		r.ready.TrackDependency(dep.Name())
	}
}

// Run starts a Runner that stops on SIGINT or SIGTERM. After the first
// signal the default signal behaviour is restored, so a second one
// terminates the process immediately.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		stop()
	}()

	return NewRunner(cfg, opts...).Start(ctx)
}
