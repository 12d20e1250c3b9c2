// Package route provides route descriptor value types and the pure predicates
// that decide whether a descriptor is fit to be registered.
package route

import (
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Method is an HTTP method as written in route files (lowercase).
type Method string

const (
	MethodGet    Method = "get"
	MethodPost   Method = "post"
	MethodPut    Method = "put"
	MethodPatch  Method = "patch"
	MethodDelete Method = "delete"
)

// Methods lists every method a descriptor may declare.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// HTTP returns the method as sent on the wire ("GET").
func (m Method) HTTP() string {
	return strings.ToUpper(string(m))
}

// Human returns the method in human readable case ("Get").
func (m Method) Human() string {
	return cases.Title(language.English).String(string(m))
}

// Middleware wraps the next link of a handler chain.
type Middleware func(http.Handler) http.Handler

// Descriptor declares one route: a path relative to its source, a method and
// an ordered handler chain. The chain runs Middleware in order, then Handler.
type Descriptor struct {
	Path       string
	Method     Method
	Middleware []Middleware
	Handler    http.Handler
}

// Middlewares converts the chain's middleware to the router's function type.
func (d Descriptor) Middlewares() []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, len(d.Middleware))
	for i, mw := range d.Middleware {
		out[i] = mw
	}
	return out
}
