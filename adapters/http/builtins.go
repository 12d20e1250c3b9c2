package http

import (
	"fmt"
	"net/http"

	"github.com/artpar/routeloader/core/registry"
	"github.com/artpar/routeloader/domain/route"
	"github.com/artpar/routeloader/pkg/respond"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Names of the built-in endpoints.
const (
	EndpointOK             = "ok"
	EndpointEcho           = "echo"
	EndpointNotImplemented = "not_implemented"
	EndpointHealth         = "health"
	EndpointNotFound       = "not_found"
)

// Names of the built-in middleware.
const (
	MiddlewareRequestID   = "request_id"
	MiddlewareRealIP      = "real_ip"
	MiddlewareRecoverer   = "recoverer"
	MiddlewareNoCache     = "no_cache"
	MiddlewareRequireJSON = "require_json"
	MiddlewareLog         = "log"
)

// EchoPayload is the payload written by the echo endpoint.
type EchoPayload struct {
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Params    map[string]string `json:"params"`
	Query     map[string]string `json:"query"`
	RequestID string            `json:"requestId,omitempty"`
}

// RegisterBuiltins adds the built-in endpoints and middleware to reg.
func RegisterBuiltins(reg *registry.Registry, logger zerolog.Logger) error {
	endpoints := []struct {
		name string
		h    http.HandlerFunc
	}{
		{EndpointOK, OK},
		{EndpointEcho, Echo},
		{EndpointNotImplemented, NotImplemented},
		{EndpointHealth, Health},
		{EndpointNotFound, respond.NotFoundHandler},
	}
	for _, e := range endpoints {
		if err := reg.HandleFunc(e.name, e.h); err != nil {
			return fmt.Errorf("register builtin %s: %w", e.name, err)
		}
	}

	mws := []struct {
		name string
		mw   route.Middleware
	}{
		{MiddlewareRequestID, middleware.RequestID},
		{MiddlewareRealIP, middleware.RealIP},
		{MiddlewareRecoverer, middleware.Recoverer},
		{MiddlewareNoCache, middleware.NoCache},
		{MiddlewareRequireJSON, middleware.AllowContentType(respond.ContentType)},
		{MiddlewareLog, NewLoggingMiddleware(logger, DefaultMetrics)},
	}
	for _, m := range mws {
		if err := reg.Use(m.name, m.mw); err != nil {
			return fmt.Errorf("register builtin %s: %w", m.name, err)
		}
	}

	return nil
}

// OK writes an empty success envelope.
func OK(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, "OK", nil)
}

// NotImplemented writes a 501 envelope.
func NotImplemented(w http.ResponseWriter, r *http.Request) {
	respond.Write(w, respond.Response{
		StatusCode: http.StatusNotImplemented,
		Message:    "Not implemented",
	})
}

// Echo writes back what the router saw of the request.
func Echo(w http.ResponseWriter, r *http.Request) {
	payload := EchoPayload{
		Method:    r.Method,
		Path:      r.URL.Path,
		Params:    map[string]string{},
		Query:     map[string]string{},
		RequestID: middleware.GetReqID(r.Context()),
	}

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == "*" {
				continue
			}
			payload.Params[key] = rctx.URLParams.Values[i]
		}
	}
	for key := range r.URL.Query() {
		payload.Query[key] = r.URL.Query().Get(key)
	}

	respond.OK(w, "OK", payload)
}
