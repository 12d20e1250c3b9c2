package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routeloader",
	Short: "Serve HTTP routes declared in a directory of route files",
	Long: `routeloader mounts every route file in a directory onto an HTTP server.

Each file (YAML, JSON or TOML) declares a list of routes. A file's name
becomes the first path segment of its routes, so users.yaml declaring
"/:id" serves /users/:id. Handler chains name built-in endpoints and
middleware.

Quick start:
  routeloader validate ./routes   # Check route files
  routeloader routes ./routes     # Print the routing table
  routeloader serve               # Start the server`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "routeloader.yaml", "config file path")
}
