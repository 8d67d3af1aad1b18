package main

import (
	"context"
	"fmt"

	"astrowheel/internal/config"
	"astrowheel/internal/ingest"
	"astrowheel/internal/preset"
	"astrowheel/internal/wheel"
)

var configPath string

// project is a loaded astrowheel.yaml with its wheel files ingested and its
// presets registered.
type project struct {
	cfg      *config.ProjectConfig
	registry *wheel.Registry
	presets  *preset.Catalog
	ingested *ingest.Result
}

func loadProject(ctx context.Context) (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}

	reg := wheel.NewRegistry()
	in, err := ingest.New(reg, cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	result, err := in.Run(ctx, cfg.ResolvePaths(configPath), cfg.ResolveExcludes(configPath), ingest.Options{})
	if err != nil {
		return nil, err
	}

	catalog := preset.NewCatalog()
	for _, p := range cfg.Presets {
		if err := catalog.Register(p); err != nil {
			return nil, fmt.Errorf("registering preset %q: %w", p.Name, err)
		}
	}

	return &project{cfg: cfg, registry: reg, presets: catalog, ingested: result}, nil
}

// presetName falls back to the project's default preset, then to the first
// built-in.
func (p *project) presetName(flag string) string {
	if flag != "" {
		return flag
	}
	if p.cfg.DefaultPreset != "" {
		return p.cfg.DefaultPreset
	}
	return preset.Builtins()[0].Name
}
