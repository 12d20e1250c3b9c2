package main

import (
	"errors"
	"fmt"

	"github.com/artpar/routeloader/app"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate route files before deployment",
	Long: `Validate every route file in a directory.

Checks:
  - The directory exists
  - Each file parses and declares a list of routes
  - Methods are one of get, post, put, patch, delete
  - Handler chains name known middleware followed by one endpoint
  - Duplicate paths (reported, not fatal)

Without [dir], routes.dir from the configuration is used.

Examples:
  routeloader validate ./routes
  routeloader validate --config /etc/routeloader/config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var validatePrefix string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validatePrefix, "prefix", "", "service prefix to apply")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	dir, prefix, err := routeTarget(args, validatePrefix, cmd.Flags().Changed("prefix"))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Validating %s...\n\n", dir)

	report, err := dryRun(cmd.Context(), dir, prefix)
	if err != nil {
		var shape *app.ShapeError
		var missing *app.MissingFileError
		switch {
		case errors.Is(err, app.ErrInvalidDestination):
			fmt.Fprintf(out, "  %s Routes directory exists\n", crossMark)
		case errors.As(err, &shape):
			fmt.Fprintf(out, "  %s %s\n", crossMark, shape.File)
		case errors.As(err, &missing):
			fmt.Fprintf(out, "  %s %s\n", crossMark, missing.File)
		}
		return fmt.Errorf("routes invalid: %w", err)
	}

	fmt.Fprintf(out, "  %s Routes directory exists\n", checkMark)
	fmt.Fprintf(out, "  %s Routes registered: %d\n", checkMark, len(report.Routes))
	for _, name := range report.Skipped {
		fmt.Fprintf(out, "  - Skipped: %s\n", name)
	}
	for _, path := range report.Duplicates {
		fmt.Fprintf(out, "  %s Duplicate route: %s\n", warnMark, path)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Routes are valid.")
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
	warnMark  = "\033[33m!\033[0m"
)
