// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	apihttp "github.com/artpar/routeloader/adapters/http"
	"github.com/artpar/routeloader/adapters/metrics"
	"github.com/artpar/routeloader/app"
	"github.com/artpar/routeloader/config"
	"github.com/artpar/routeloader/core/registry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder // nil unless hot reload is enabled
	HTTPServer *http.Server
	Router     chi.Router
	Metrics    *metrics.Collector
	Handlers   *registry.Registry

	// Report describes the routes loaded at startup.
	Report app.Report
}

// Options provides optional configuration for application initialization.
type Options struct {
	// Handlers holds the application's named endpoints and middleware.
	// Built-ins are added to it; a nil registry gets only the built-ins.
	Handlers *registry.Registry

	// Version is reported by the version endpoint.
	Version string

	// LogOutput receives log lines. Defaults to os.Stdout.
	LogOutput io.Writer
}

// New creates the application: it builds the router, loads every route file
// from cfg.Routes.Dir onto it and prepares the HTTP server.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := SetupLogger(cfg.Logging, opts.LogOutput)
	logger.Info().Msg("initializing routeloader")

	handlers := opts.Handlers
	if handlers == nil {
		handlers = registry.New()
	}
	if err := apihttp.RegisterBuiltins(handlers, logger); err != nil {
		return nil, fmt.Errorf("register builtins: %w", err)
	}

	a := &App{
		Logger:   logger,
		Config:   cfg,
		Handlers: handlers,
	}

	routerCfg := apihttp.RouterConfig{
		MetricsPath: cfg.Metrics.Path,
		Version:     opts.Version,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(reg)
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}
	a.Router = apihttp.NewRouter(logger, routerCfg)

	if err := a.loadRoutes(context.Background()); err != nil {
		return nil, err
	}
	a.warnShadowed(apihttp.ReservedPaths(routerCfg))

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// NewWithHotReload creates the application from the config file at path and
// watches that file (and SIGHUP) for changes. Reloads apply the log level;
// route settings take effect on the next start.
func NewWithHotReload(path string, opts Options) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a, err := New(cfg, opts)
	if err != nil {
		return nil, err
	}

	holder, err := config.NewHolder(path, a.Logger.With().Str("component", "config").Logger())
	if err != nil {
		return nil, err
	}
	a.Holder = holder

	holder.OnChange(a.applyConfig)
	holder.OnError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	holder.WatchSignals()

	return a, nil
}

func (a *App) loadRoutes(ctx context.Context) error {
	opts := app.Options{
		ServicePrefix: a.Config.Routes.ServicePrefix,
		HideLogs:      a.Config.Routes.HideLogs,
	}

	if name := a.Config.Routes.Wildcard; name != "" {
		h, ok := a.Handlers.Endpoint(name)
		if !ok {
			return fmt.Errorf("routes.wildcard: unknown endpoint %q", name)
		}
		opts.WildcardHandler = h
	}

	loader := app.NewLoader(app.LoaderDeps{
		Handlers: a.Handlers,
		Logger:   a.Logger,
		Metrics:  a.Metrics,
	})

	report, err := loader.Load(ctx, a.Config.Routes.Dir, a.Router, opts)
	if err != nil {
		return fmt.Errorf("load routes: %w", err)
	}
	a.Report = report
	return nil
}

// warnShadowed logs loaded routes that replaced one of the router's own
// endpoints.
func (a *App) warnShadowed(reserved []string) {
	for _, rt := range a.Report.Routes {
		if !slices.Contains(reserved, rt.Pattern) {
			continue
		}
		a.Logger.Warn().
			Str("pattern", rt.Pattern).
			Str("method", rt.Method.HTTP()).
			Str("source", rt.Source).
			Msg("loaded route overrides built-in endpoint")
	}
}

// applyConfig applies the parts of a reloaded config that can change while
// running.
func (a *App) applyConfig(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Int("routes", len(a.Report.Routes)).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	var err error
	if a.HTTPServer != nil {
		if err = a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return err
}

// SetupLogger creates the application logger and sets the global level.
// Unknown levels fall back to info.
func SetupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
