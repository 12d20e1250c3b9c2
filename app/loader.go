// Package app provides the route loader: it reads route sources, validates
// them, and registers their routes on a server's routing table.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artpar/routeloader/adapters/clock"
	"github.com/artpar/routeloader/adapters/idgen"
	"github.com/artpar/routeloader/adapters/metrics"
	"github.com/artpar/routeloader/core/registry"
	"github.com/artpar/routeloader/core/routefile"
	"github.com/artpar/routeloader/domain/route"
	"github.com/artpar/routeloader/pkg/respond"
	"github.com/artpar/routeloader/pkg/urlpath"
	"github.com/artpar/routeloader/ports"
	"github.com/rs/zerolog"
)

const (
	msgAvailableRoutes = "Available Routes below"
	msgDuplicateRoute  = "Warning: Duplicate route detected - %s"
	msgLoadedRoutes    = "Loaded routes in - %.3fms"
)

// Options controls a single load.
type Options struct {
	// ServicePrefix is prepended verbatim to every registered path.
	ServicePrefix string

	// HideLogs suppresses informational log output.
	HideLogs bool

	// WildcardHandler receives every request no loaded route matches.
	// When nil, the standard not-found envelope is written with a 404.
	WildcardHandler http.Handler
}

// Source is a named list of route descriptors. Its name plays the part of a
// route file's base name.
type Source struct {
	Name   string
	Routes []route.Descriptor
}

// RegisteredRoute is a route the loader handed to the routing table.
type RegisteredRoute struct {
	Source    string       `json:"source"`
	Method    route.Method `json:"method"`
	FinalPath string       `json:"finalPath"` // source name joined with the declared path
	MainPath  string       `json:"mainPath"`  // FinalPath with the service prefix
	Pattern   string       `json:"pattern"`   // MainPath as registered with the router
}

// Report summarizes a load. On failure it holds what was registered before
// the failing source; nothing is rolled back.
type Report struct {
	LoadID     string
	Routes     []RegisteredRoute
	Duplicates []string
	Skipped    []string
	Elapsed    time.Duration
}

// LoaderDeps contains the loader's collaborators. Only Handlers is needed
// for loading from a directory; the rest have defaults.
type LoaderDeps struct {
	Handlers *registry.Registry
	Logger   zerolog.Logger
	Metrics  *metrics.Collector
	Clock    ports.Clock
	IDGen    ports.IDGenerator
}

// Loader registers routes declared in route sources.
// A Loader may be reused, but concurrent loads against the same routing
// table are not supported.
type Loader struct {
	handlers *registry.Registry
	logger   zerolog.Logger
	metrics  *metrics.Collector
	clock    ports.Clock
	ids      ports.IDGenerator
}

// NewLoader creates a loader.
func NewLoader(deps LoaderDeps) *Loader {
	if deps.Handlers == nil {
		deps.Handlers = registry.New()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.IDGen == nil {
		deps.IDGen = idgen.UUID{}
	}

	return &Loader{
		handlers: deps.Handlers,
		logger:   deps.Logger.With().Str("component", "loader").Logger(),
		metrics:  deps.Metrics,
		clock:    deps.Clock,
		ids:      deps.IDGen,
	}
}

// Load reads every route file in dir, in listing order, and registers the
// declared routes on table. Files whose base name is "index", hidden files
// and subdirectories are skipped. The first invalid or missing file aborts
// the load; routes registered from earlier files stay registered.
// After all files are registered the wildcard handler is installed.
func (l *Loader) Load(ctx context.Context, dir string, table ports.RouteTable, opts Options) (Report, error) {
	s := l.begin(table, opts)

	if !routefile.IsValidDestinationPath(dir) {
		return s.fail(fmt.Errorf("%w: %q", ErrInvalidDestination, dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return s.fail(fmt.Errorf("read routes dir %s: %w", dir, err))
	}

	s.log.Info().Str("dir", dir).Msg(msgAvailableRoutes)

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			s.skip(name)
			continue
		}
		files = append(files, name)
	}

	routeFiles := urlpath.StripIndex(files)
	if len(routeFiles) != len(files) {
		for _, name := range files {
			if urlpath.StripFileExtension(name) == urlpath.IndexName {
				s.skip(name)
			}
		}
	}

	for _, file := range routeFiles {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}

		src, err := l.readFile(dir, file)
		if err != nil {
			return s.fail(err)
		}
		if err := s.mount(src); err != nil {
			return s.fail(err)
		}
	}

	return s.finish(), nil
}

// LoadSources registers routes declared in Go. Sources are processed in
// order with the same rules as route files: a source named "index" is
// skipped and an invalid source aborts the load.
func (l *Loader) LoadSources(ctx context.Context, sources []Source, table ports.RouteTable, opts Options) (Report, error) {
	s := l.begin(table, opts)
	s.log.Info().Int("sources", len(sources)).Msg(msgAvailableRoutes)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}
		if urlpath.StripFileExtension(src.Name) == urlpath.IndexName {
			s.skip(src.Name)
			continue
		}
		src.Name = urlpath.StripFileExtension(src.Name)
		if err := s.mount(src); err != nil {
			return s.fail(err)
		}
	}

	return s.finish(), nil
}

// readFile parses a route file and resolves its handler names.
func (l *Loader) readFile(dir, file string) (Source, error) {
	name := urlpath.StripFileExtension(file)

	path, err := filepath.Abs(filepath.Join(dir, file))
	if err != nil {
		return Source{}, fmt.Errorf("resolve %s: %w", file, err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Source{}, &MissingFileError{File: name}
	}

	raw, err := routefile.ParseFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, &MissingFileError{File: name}
		}
		return Source{}, &ShapeError{File: name, Err: err}
	}

	descriptors := make([]route.Descriptor, 0, len(raw))
	for i, r := range raw {
		mws, h, err := l.handlers.Resolve(r.Handlers)
		if err != nil {
			return Source{}, &ShapeError{
				File: name,
				Err:  fmt.Errorf("routes[%d] %s %q: %w", i, r.Method, r.Path, err),
			}
		}
		descriptors = append(descriptors, route.Descriptor{
			Path:       r.Path,
			Method:     route.Method(r.Method),
			Middleware: mws,
			Handler:    h,
		})
	}

	return Source{Name: name, Routes: descriptors}, nil
}

// session is the state of one load. registered holds the router pattern of
// each final path, so ":id" and "{id}" collide, and is discarded with the
// session.
type session struct {
	table      ports.RouteTable
	opts       Options
	log        zerolog.Logger
	metrics    *metrics.Collector
	clock      ports.Clock
	start      time.Time
	registered map[string]struct{}
	report     Report
}

func (l *Loader) begin(table ports.RouteTable, opts Options) *session {
	id := l.ids.New()

	log := l.logger.With().Str("load_id", id).Logger()
	if opts.HideLogs {
		log = zerolog.Nop()
	}

	return &session{
		table:      table,
		opts:       opts,
		log:        log,
		metrics:    l.metrics,
		clock:      l.clock,
		start:      l.clock.Now(),
		registered: make(map[string]struct{}),
		report:     Report{LoadID: id},
	}
}

func (s *session) skip(name string) {
	s.report.Skipped = append(s.report.Skipped, name)
	s.log.Debug().Str("file", name).Msg("skipping route source")
}

// mount registers every descriptor of src unless its final path, as a router
// pattern, was already registered in this session.
func (s *session) mount(src Source) error {
	if !route.IsDescriptorList(src.Routes) {
		return &ShapeError{File: src.Name, Err: invalidDescriptorError(src.Routes)}
	}

	for _, d := range src.Routes {
		finalPath := urlpath.JoinURLs(src.Name, d.Path)
		key := urlpath.Pattern(finalPath)

		if _, dup := s.registered[key]; dup {
			s.log.Warn().
				Str("path", finalPath).
				Str("source", src.Name).
				Msg(fmt.Sprintf(msgDuplicateRoute, finalPath))
			s.report.Duplicates = append(s.report.Duplicates, finalPath)
			if s.metrics != nil {
				s.metrics.RoutesDuplicate.Inc()
			}
			continue
		}

		mainPath := finalPath
		if s.opts.ServicePrefix != "" {
			mainPath = s.opts.ServicePrefix + finalPath
		}
		pattern := urlpath.Pattern(mainPath)

		if err := register(s.table, d, pattern); err != nil {
			return &ShapeError{File: src.Name, Err: err}
		}

		s.log.Info().
			Str("method", d.Method.HTTP()).
			Str("pattern", pattern).
			Msg(mainPath + " - " + d.Method.Human())

		s.registered[key] = struct{}{}
		s.report.Routes = append(s.report.Routes, RegisteredRoute{
			Source:    src.Name,
			Method:    d.Method,
			FinalPath: finalPath,
			MainPath:  mainPath,
			Pattern:   pattern,
		})
		if s.metrics != nil {
			s.metrics.RoutesRegistered.WithLabelValues(d.Method.HTTP()).Inc()
		}
	}

	return nil
}

// register adds one route to table. Routers reject malformed patterns by
// panicking; that is reported as an error instead.
func register(table ports.RouteTable, d route.Descriptor, pattern string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register %s %s: %v", d.Method.HTTP(), pattern, r)
		}
	}()

	table.With(d.Middlewares()...).Method(d.Method.HTTP(), pattern, d.Handler)
	return nil
}

// finish installs the wildcard handler once every route is registered and
// records the elapsed time.
func (s *session) finish() Report {
	var wildcard http.Handler = http.HandlerFunc(respond.NotFoundHandler)
	if s.opts.WildcardHandler != nil {
		wildcard = s.opts.WildcardHandler
	}
	if s.metrics != nil {
		wildcard = countWildcard(s.metrics, wildcard)
	}
	s.table.NotFound(wildcard.ServeHTTP)
	s.table.MethodNotAllowed(wildcard.ServeHTTP)

	s.report.Elapsed = s.clock.Now().Sub(s.start)
	s.log.Info().
		Int("routes", len(s.report.Routes)).
		Int("duplicates", len(s.report.Duplicates)).
		Msg(fmt.Sprintf(msgLoadedRoutes, float64(s.report.Elapsed)/float64(time.Millisecond)))

	if s.metrics != nil {
		s.metrics.LoadDuration.Observe(s.report.Elapsed.Seconds())
		s.metrics.RoutesActive.Set(float64(len(s.report.Routes)))
	}
	return s.report
}

func (s *session) fail(err error) (Report, error) {
	if s.metrics != nil {
		s.metrics.LoadErrors.WithLabelValues(errorKind(err)).Inc()
	}
	return s.report, err
}

func countWildcard(m *metrics.Collector, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.WildcardHits.Inc()
		next.ServeHTTP(w, r)
	})
}

// invalidDescriptorError explains why IsDescriptorList rejected ds.
func invalidDescriptorError(ds []route.Descriptor) error {
	if ds == nil {
		return errors.New("no route list declared")
	}
	for i, d := range ds {
		if !route.IsValidMethod(string(d.Method)) {
			return fmt.Errorf("routes[%d]: method %q is not one of get, post, put, patch, delete", i, d.Method)
		}
		if !route.IsHandlerChain(d.Middleware, d.Handler) {
			return fmt.Errorf("routes[%d]: handler chain is incomplete", i)
		}
	}
	return errors.New("invalid route list")
}
