package main

import (
	"context"
	"fmt"

	apihttp "github.com/artpar/routeloader/adapters/http"
	"github.com/artpar/routeloader/app"
	"github.com/artpar/routeloader/config"
	"github.com/artpar/routeloader/core/registry"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// routeTarget is the directory and prefix a command works on: the positional
// argument when given, the configured routes otherwise.
func routeTarget(args []string, prefix string, prefixSet bool) (string, string, error) {
	if len(args) == 1 {
		return args[0], prefix, nil
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return "", "", fmt.Errorf("no routes directory given: %w", err)
	}
	if !prefixSet {
		prefix = cfg.Routes.ServicePrefix
	}
	return cfg.Routes.Dir, prefix, nil
}

// dryRun loads dir onto a throwaway router using the built-in handlers.
func dryRun(ctx context.Context, dir, prefix string) (app.Report, error) {
	reg := registry.New()
	if err := apihttp.RegisterBuiltins(reg, zerolog.Nop()); err != nil {
		return app.Report{}, err
	}

	loader := app.NewLoader(app.LoaderDeps{Handlers: reg, Logger: zerolog.Nop()})
	return loader.Load(ctx, dir, chi.NewRouter(), app.Options{
		ServicePrefix: prefix,
		HideLogs:      true,
	})
}
