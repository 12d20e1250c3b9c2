// Package registry holds the named handlers and middleware that route files
// refer to. Route files cannot carry Go code, so every link of a handler chain
// is registered here up front and resolved by name at load time.
package registry

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/artpar/routeloader/domain/route"
)

// Kind distinguishes terminal handlers from middleware.
type Kind string

const (
	KindEndpoint   Kind = "endpoint"
	KindMiddleware Kind = "middleware"
)

// ErrEmptyChain is returned when a chain names no handlers.
var ErrEmptyChain = errors.New("handler chain is empty")

// Registry maps names to endpoints and middleware.
type Registry struct {
	mu sync.RWMutex

	endpoints  map[string]http.Handler
	middleware map[string]route.Middleware
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		endpoints:  make(map[string]http.Handler),
		middleware: make(map[string]route.Middleware),
	}
}

// Handle registers a terminal handler under name.
// Names are shared between endpoints and middleware; reusing one is a conflict.
func (r *Registry) Handle(name string, h http.Handler) error {
	if name == "" {
		return fmt.Errorf("handler name is required")
	}
	if h == nil {
		return fmt.Errorf("handler %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFree(name, KindEndpoint); err != nil {
		return err
	}
	r.endpoints[name] = h
	return nil
}

// HandleFunc registers a terminal handler function under name.
func (r *Registry) HandleFunc(name string, f http.HandlerFunc) error {
	if f == nil {
		return fmt.Errorf("handler %q is nil", name)
	}
	return r.Handle(name, f)
}

// Use registers middleware under name.
func (r *Registry) Use(name string, mw route.Middleware) error {
	if name == "" {
		return fmt.Errorf("middleware name is required")
	}
	if mw == nil {
		return fmt.Errorf("middleware %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFree(name, KindMiddleware); err != nil {
		return err
	}
	r.middleware[name] = mw
	return nil
}

func (r *Registry) checkFree(name string, kind Kind) error {
	if _, ok := r.endpoints[name]; ok {
		return &ConflictError{Name: name, Existing: KindEndpoint, Attempted: kind}
	}
	if _, ok := r.middleware[name]; ok {
		return &ConflictError{Name: name, Existing: KindMiddleware, Attempted: kind}
	}
	return nil
}

// Endpoint returns the terminal handler registered under name.
func (r *Registry) Endpoint(name string) (http.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.endpoints[name]
	return h, ok
}

// Middleware returns the middleware registered under name.
func (r *Registry) Middleware(name string) (route.Middleware, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mw, ok := r.middleware[name]
	return mw, ok
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.endpoints[name]; ok {
		return KindEndpoint, true
	}
	if _, ok := r.middleware[name]; ok {
		return KindMiddleware, true
	}
	return "", false
}

// Resolve turns a named chain into middleware and a terminal handler.
// Every name except the last must be middleware; the last must be an endpoint.
func (r *Registry) Resolve(names []string) ([]route.Middleware, http.Handler, error) {
	if len(names) == 0 {
		return nil, nil, ErrEmptyChain
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	last := len(names) - 1
	mws := make([]route.Middleware, 0, last)
	for _, name := range names[:last] {
		mw, ok := r.middleware[name]
		if !ok {
			if _, isEndpoint := r.endpoints[name]; isEndpoint {
				return nil, nil, fmt.Errorf("handler %q is an endpoint and must be last in the chain", name)
			}
			return nil, nil, fmt.Errorf("unknown middleware %q", name)
		}
		mws = append(mws, mw)
	}

	h, ok := r.endpoints[names[last]]
	if !ok {
		if _, isMiddleware := r.middleware[names[last]]; isMiddleware {
			return nil, nil, fmt.Errorf("chain ends with middleware %q, want an endpoint", names[last])
		}
		return nil, nil, fmt.Errorf("unknown handler %q", names[last])
	}

	return mws, h, nil
}

// IsChain reports whether names resolves to a valid chain.
func (r *Registry) IsChain(names []string) bool {
	_, _, err := r.Resolve(names)
	return err == nil
}

// Names returns all registered names, sorted, with their kinds.
func (r *Registry) Names() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.endpoints)+len(r.middleware))
	for name := range r.endpoints {
		entries = append(entries, Entry{Name: name, Kind: KindEndpoint})
	}
	for name := range r.middleware {
		entries = append(entries, Entry{Name: name, Kind: KindMiddleware})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Entry is a registered name and its kind.
type Entry struct {
	Name string
	Kind Kind
}

// ConflictError is returned when a name is registered twice.
type ConflictError struct {
	Name      string
	Existing  Kind
	Attempted Kind
}

// Error returns the conflict error message.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("name %q already registered as %s (attempted %s)", e.Name, e.Existing, e.Attempted)
}
