// Package ports defines interfaces (contracts) between layers.
// Implementations live in adapters/.
package ports

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// RouteTable is the part of a server application the loader mutates:
// per-method registration with a handler chain and the catch-all handlers.
// chi.Router satisfies it.
type RouteTable interface {
	With(middlewares ...func(http.Handler) http.Handler) chi.Router
	Method(method, pattern string, h http.Handler)
	NotFound(h http.HandlerFunc)
	MethodNotAllowed(h http.HandlerFunc)
}

var _ RouteTable = (chi.Router)(nil)
