package main

import (
	"fmt"
	"os"

	"github.com/artpar/routeloader/bootstrap"
	"github.com/artpar/routeloader/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the routeloader HTTP server.

The server will:
  - Load configuration from routeloader.yaml (or --config)
  - Or load configuration from ROUTELOADER_* environment variables
  - Register every route file in routes.dir
  - Answer unmatched requests with the wildcard handler

Environment variables:
  ROUTELOADER_ROUTES_DIR             - Route file directory (required)
  ROUTELOADER_ROUTES_SERVICE_PREFIX  - Prefix for every route
  ROUTELOADER_SERVER_PORT            - Server port (default: 8080)
  ROUTELOADER_LOG_LEVEL              - Log level: debug, info, warn, error

Examples:
  routeloader serve
  routeloader serve --config /etc/routeloader/config.yaml
  routeloader serve --hot-reload=false
  ROUTELOADER_ROUTES_DIR=./routes routeloader serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "No configuration found.")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Option 1: Create %s with a routes.dir entry\n", cfgFile)
		fmt.Fprintf(out, "Option 2: Set %s\n", config.EnvRoutesDir)
		return nil
	}

	opts := bootstrap.Options{Version: version}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with config file
		app, err = bootstrap.NewWithHotReload(cfgFile, opts)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		app, err = bootstrap.New(cfg, opts)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
