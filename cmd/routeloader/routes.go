package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes [dir]",
	Short: "Print the routing table",
	Long: `Load a routes directory and print the resulting routing table.

Without [dir], routes.dir and routes.service_prefix from the configuration
are used.

Examples:
  routeloader routes ./routes
  routeloader routes ./routes --prefix /api/
  routeloader routes --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoutes,
}

var (
	routesPrefix string
	routesJSON   bool
)

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVar(&routesPrefix, "prefix", "", "service prefix to apply")
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "output as JSON")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	dir, prefix, err := routeTarget(args, routesPrefix, cmd.Flags().Changed("prefix"))
	if err != nil {
		return err
	}

	report, err := dryRun(cmd.Context(), dir, prefix)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if routesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report.Routes)
	}

	if len(report.Routes) == 0 {
		fmt.Fprintln(out, "No routes found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tPATTERN\tSOURCE")
	fmt.Fprintln(w, "------\t----\t-------\t------")
	for _, r := range report.Routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Method.HTTP(), r.MainPath, r.Pattern, r.Source)
	}
	return w.Flush()
}
