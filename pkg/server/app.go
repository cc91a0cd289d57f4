package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"UpliftAPI/pkg/config"
	xhttp "UpliftAPI/pkg/http"
	applogger "UpliftAPI/pkg/logger"
)

// ModelLoader loads the process-wide models ahead of serving.
type ModelLoader interface {
	Load(ctx context.Context) error
}

type namedCloser struct {
	name string
	c    io.Closer
}

// Option configures App.
type Option func(*App)

// WithCloser registers a resource closed on shutdown, in registration order.
// A nil closer is ignored.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	httpHandler xhttp.Handler
	models      ModelLoader
	l           *applogger.Logger
	httpServer  *xhttp.Server
	closers     []namedCloser
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, handler xhttp.Handler, models ModelLoader, l *applogger.Logger, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{
		cfg:         cfg,
		httpHandler: handler,
		models:      models,
		l:           l,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.httpServer = a.newHTTPServer()
	return a
}

func (a *App) newHTTPServer() *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Server.SlowThreshold),
		xhttp.WithLogger(a.l),
	}
	if a.cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimit(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst))
	}
	return xhttp.NewServer(a.httpHandler, opts...)
}

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.l }

// Run loads models (unless lazy), starts the HTTP server and blocks until
// interrupted or the server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	if a.cfg.Models.Lazy {
		a.l.Info("models: lazy loading enabled")
	} else if err := a.models.Load(ctx); err != nil {
		a.close()
		return fmt.Errorf("load models: %w", err)
	}

	errCh := a.httpServer.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			runErr = err
			a.l.Error("http server error", applogger.Error(err))
		}
	}

	return errors.Join(runErr, a.shutdown())
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	var err error
	if serr := a.httpServer.Stop(context.Background()); serr != nil {
		a.l.Error("http shutdown error", applogger.Error(serr))
		err = serr
	}
	a.close()

	a.l.Info("shutdown complete")
	return err
}

func (a *App) close() {
	// the collector publishes through the Kafka producer, so flush it first
	a.l.RemoveCollector()
	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}
}
