// Package routefile parses declarative route files.
//
// A route file is a YAML, JSON or TOML document listing route descriptors.
// Handler chains are written as registry names:
//
//	# users.yaml
//	- path: /
//	  method: get
//	  handlers: [list_users]
//	- path: /:id
//	  method: delete
//	  handlers: [require_admin, delete_user]
//
// TOML has no top-level arrays, so TOML files use an array of tables:
//
//	[[routes]]
//	path = "/"
//	method = "get"
//	handlers = ["list_users"]
//
// Parsing fails closed: a top level that is not a list, unknown keys, and
// missing path, method or handlers are all errors.
package routefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/routeloader/domain/route"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a route file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ErrNotList is returned when a route file's top level is not a list of routes.
var ErrNotList = errors.New("must export an array of route handlers")

// ErrUnsupportedFormat is returned for files whose extension has no parser.
var ErrUnsupportedFormat = errors.New("unsupported route file format")

// Route is one descriptor exactly as written in a route file.
type Route struct {
	Path     string   `yaml:"path" json:"path" toml:"path"`
	Method   string   `yaml:"method" json:"method" toml:"method"`
	Handlers []string `yaml:"handlers" json:"handlers" toml:"handlers"`
}

// rawRoute tracks which keys were present so missing keys fail validation.
type rawRoute struct {
	Path     *string  `yaml:"path" json:"path" toml:"path"`
	Method   *string  `yaml:"method" json:"method" toml:"method"`
	Handlers []string `yaml:"handlers" json:"handlers" toml:"handlers"`
}

type tomlDocument struct {
	Routes []rawRoute `toml:"routes"`
}

// FormatOf returns the format implied by a file name's extension.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// ParseFile reads and parses the route file at path.
func ParseFile(path string) ([]Route, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data, format)
}

// Parse parses route file contents in the given format.
func Parse(data []byte, format Format) ([]Route, error) {
	var (
		raw []rawRoute
		err error
	)

	switch format {
	case FormatYAML:
		raw, err = parseYAML(data)
	case FormatJSON:
		raw, err = parseJSON(data)
	case FormatTOML:
		raw, err = parseTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return validate(raw)
}

func parseYAML(data []byte) ([]rawRoute, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, ErrNotList
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw []rawRoute
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		raw = []rawRoute{}
	}
	return raw, nil
}

func parseJSON(data []byte) ([]rawRoute, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotList
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var raw []rawRoute
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if raw == nil {
		raw = []rawRoute{}
	}
	return raw, nil
}

func parseTOML(data []byte) ([]rawRoute, error) {
	var probe map[string]any
	if err := toml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if _, ok := probe["routes"].([]any); !ok {
		return nil, ErrNotList
	}

	var doc tomlDocument
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	return doc.Routes, nil
}

func validate(raw []rawRoute) ([]Route, error) {
	var errs []string
	routes := make([]Route, 0, len(raw))

	for i, r := range raw {
		if r.Path == nil {
			errs = append(errs, fmt.Sprintf("routes[%d]: path is required", i))
		}
		if r.Method == nil {
			errs = append(errs, fmt.Sprintf("routes[%d]: method is required", i))
		} else if !route.IsValidMethod(*r.Method) {
			errs = append(errs, fmt.Sprintf("routes[%d]: method %q is not one of get, post, put, patch, delete", i, *r.Method))
		}
		if r.Handlers == nil {
			errs = append(errs, fmt.Sprintf("routes[%d]: handlers is required", i))
		} else if len(r.Handlers) == 0 {
			errs = append(errs, fmt.Sprintf("routes[%d]: handlers must name at least one handler", i))
		}
		if len(errs) > 0 {
			continue
		}

		routes = append(routes, Route{
			Path:     *r.Path,
			Method:   *r.Method,
			Handlers: r.Handlers,
		})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return routes, nil
}
