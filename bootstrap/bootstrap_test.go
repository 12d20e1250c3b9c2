package bootstrap_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/routeloader/app"
	"github.com/artpar/routeloader/bootstrap"
	"github.com/artpar/routeloader/config"
	"github.com/artpar/routeloader/core/registry"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
)

func resetGlobalLevel(t *testing.T) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

func metricValue(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	t.Fatalf("metric is neither counter nor gauge")
	return 0
}

func routesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"users.yaml": `
- {path: /, method: get, handlers: [list_users]}
- {path: /:id, method: get, handlers: [echo]}
`,
		"status.json": `[{"path": "", "method": "get", "handlers": ["ok"]}]`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, ShutdownTimeout: time.Second},
		Routes: config.RoutesConfig{Dir: dir, ServicePrefix: "/api/"},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}
}

func userHandlers(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	err := reg.HandleFunc("list_users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("users"))
	})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestNew_LoadsRoutes(t *testing.T) {
	resetGlobalLevel(t)

	var logs bytes.Buffer
	a, err := bootstrap.New(testConfig(routesDir(t)), bootstrap.Options{
		Handlers:  userHandlers(t),
		Version:   "1.0.0",
		LogOutput: &logs,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	if a.HTTPServer == nil || a.HTTPServer.Addr != "127.0.0.1:8080" {
		t.Fatalf("HTTPServer = %+v", a.HTTPServer)
	}
	if len(a.Report.Routes) != 3 {
		t.Errorf("loaded %d routes, want 3", len(a.Report.Routes))
	}
	if a.Metrics != nil {
		t.Error("Metrics should be nil when disabled")
	}

	h := a.HTTPServer.Handler
	if rec := get(h, "/api/users"); rec.Body.String() != "users" {
		t.Errorf("GET /api/users = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(h, "/api/users/7"); !strings.Contains(rec.Body.String(), `"id":"7"`) {
		t.Errorf("GET /api/users/7 = %q", rec.Body.String())
	}
	if rec := get(h, "/api/status"); rec.Code != http.StatusOK {
		t.Errorf("GET /api/status = %d", rec.Code)
	}
	if rec := get(h, "/version"); !strings.Contains(rec.Body.String(), `"1.0.0"`) {
		t.Errorf("GET /version = %q", rec.Body.String())
	}
	if rec := get(h, "/nowhere"); rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Resource not found") {
		t.Errorf("GET /nowhere = %d %q", rec.Code, rec.Body.String())
	}

	if !strings.Contains(logs.String(), "/api/users/:id - Get") {
		t.Errorf("registration not logged:\n%s", logs.String())
	}
}

func TestNew_WildcardByName(t *testing.T) {
	resetGlobalLevel(t)

	cfg := testConfig(routesDir(t))
	cfg.Routes.Wildcard = "not_implemented"

	a, err := bootstrap.New(cfg, bootstrap.Options{Handlers: userHandlers(t), LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if rec := get(a.HTTPServer.Handler, "/nowhere"); rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestNew_UnknownWildcard(t *testing.T) {
	resetGlobalLevel(t)

	cfg := testConfig(routesDir(t))
	cfg.Routes.Wildcard = "missing"

	_, err := bootstrap.New(cfg, bootstrap.Options{Handlers: userHandlers(t), LogOutput: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), `unknown endpoint "missing"`) {
		t.Errorf("New error = %v", err)
	}
}

func TestNew_InvalidRoutesDir(t *testing.T) {
	resetGlobalLevel(t)

	cfg := testConfig(filepath.Join(t.TempDir(), "missing"))

	_, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: &bytes.Buffer{}})
	if !errors.Is(err, app.ErrInvalidDestination) {
		t.Errorf("New error = %v, want ErrInvalidDestination", err)
	}
}

func TestNew_UnknownHandlerInRouteFile(t *testing.T) {
	resetGlobalLevel(t)

	// list_users is not registered
	_, err := bootstrap.New(testConfig(routesDir(t)), bootstrap.Options{LogOutput: &bytes.Buffer{}})

	var shape *app.ShapeError
	if !errors.As(err, &shape) || shape.File != "users" {
		t.Errorf("New error = %v, want ShapeError for users", err)
	}
}

func TestNew_WarnsWhenRouteOverridesBuiltin(t *testing.T) {
	resetGlobalLevel(t)

	dir := t.TempDir()
	files := map[string]string{
		"health.yaml": "- {path: /, method: get, handlers: [ok]}\n",
		"status.yaml": "- {path: /, method: get, handlers: [ok]}\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := testConfig(dir)
	cfg.Routes.ServicePrefix = ""

	var logs bytes.Buffer
	if _, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: &logs}); err != nil {
		t.Fatalf("New: %v", err)
	}

	out := logs.String()
	if n := strings.Count(out, "loaded route overrides built-in endpoint"); n != 1 {
		t.Errorf("override warnings = %d, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, `"pattern":"/health"`) {
		t.Errorf("warning does not name /health:\n%s", out)
	}
}

func TestNew_Metrics(t *testing.T) {
	resetGlobalLevel(t)

	cfg := testConfig(routesDir(t))
	cfg.Metrics.Enabled = true

	a, err := bootstrap.New(cfg, bootstrap.Options{Handlers: userHandlers(t), LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Metrics == nil {
		t.Fatal("Metrics should be set when enabled")
	}

	get(a.HTTPServer.Handler, "/api/users")
	get(a.HTTPServer.Handler, "/nowhere")

	if v := metricValue(t, a.Metrics.RoutesActive); v != 3 {
		t.Errorf("RoutesActive = %v, want 3", v)
	}
	if v := metricValue(t, a.Metrics.WildcardHits); v != 1 {
		t.Errorf("WildcardHits = %v, want 1", v)
	}

	body := get(a.HTTPServer.Handler, "/metrics").Body.String()
	for _, want := range []string{
		"routeloader_routes_registered_total",
		`routeloader_requests_total{method="GET",route="/api/users",status="2xx"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestNewWithHotReload(t *testing.T) {
	resetGlobalLevel(t)

	dir := routesDir(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	write := func(level string) {
		content := "routes:\n  dir: " + dir + "\n  service_prefix: /api/\n" +
			"logging:\n  level: " + level + "\n" +
			"metrics:\n  enabled: true\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("info")

	a, err := bootstrap.NewWithHotReload(path, bootstrap.Options{Handlers: userHandlers(t), LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewWithHotReload: %v", err)
	}
	defer a.Shutdown()

	if a.Holder == nil {
		t.Fatal("Holder should be set")
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", zerolog.GlobalLevel())
	}

	write("debug")
	if err := a.Holder.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", zerolog.GlobalLevel())
	}
	if v := metricValue(t, a.Metrics.ConfigReloads); v < 1 {
		t.Errorf("ConfigReloads = %v, want >= 1", v)
	}

	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.Holder.Reload(); err == nil {
		t.Error("Reload should fail without routes.dir")
	}
	if v := metricValue(t, a.Metrics.ConfigReloadErrors); v < 1 {
		t.Errorf("ConfigReloadErrors = %v, want >= 1", v)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			resetGlobalLevel(t)
			bootstrap.SetupLogger(config.LoggingConfig{Level: tt.level}, &bytes.Buffer{})
			if zerolog.GlobalLevel() != tt.want {
				t.Errorf("level = %v, want %v", zerolog.GlobalLevel(), tt.want)
			}
		})
	}
}

func TestSetupLogger_Format(t *testing.T) {
	resetGlobalLevel(t)

	var jsonBuf, consoleBuf bytes.Buffer
	jsonLogger := bootstrap.SetupLogger(config.LoggingConfig{Level: "info", Format: "json"}, &jsonBuf)
	jsonLogger.Info().Msg("hello")
	consoleLogger := bootstrap.SetupLogger(config.LoggingConfig{Level: "info", Format: "console"}, &consoleBuf)
	consoleLogger.Info().Msg("hello")

	if !strings.HasPrefix(jsonBuf.String(), "{") || !strings.Contains(jsonBuf.String(), `"time"`) {
		t.Errorf("json output = %q", jsonBuf.String())
	}
	if strings.HasPrefix(consoleBuf.String(), "{") || !strings.Contains(consoleBuf.String(), "hello") {
		t.Errorf("console output = %q", consoleBuf.String())
	}
}
