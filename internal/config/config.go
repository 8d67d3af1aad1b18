package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"astrowheel/internal/preset"
)

const (
	EnvStoreDSN    = "ASTROWHEEL_STORE_DSN"
	EnvMetricsAddr = "ASTROWHEEL_METRICS_ADDR"
	EnvCacheSize   = "ASTROWHEEL_CACHE_SIZE"

	DefaultCacheSize = 256
)

type ProjectConfig struct {
	Project       string          `yaml:"project"`
	Version       int             `yaml:"version"`
	Wheels        WheelsConfig    `yaml:"wheels"`
	Store         StoreConfig     `yaml:"store"`
	Cache         CacheConfig     `yaml:"cache"`
	Metrics       MetricsConfig   `yaml:"metrics"`
	DefaultPreset string          `yaml:"default_preset"`
	Presets       []preset.Preset `yaml:"presets"`
}

type WheelsConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

type CacheConfig struct {
	Size int `yaml:"size"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LoadProjectConfig reads astrowheel.yaml. A .env file next to it is loaded
// first; variables already set in the environment win over the file, and the
// ASTROWHEEL_* variables win over the YAML.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = DefaultCacheSize
	}
	return &cfg, nil
}

// ResolvePaths returns the wheel paths relative to the directory holding the
// config file.
func (c *ProjectConfig) ResolvePaths(configPath string) []string {
	dir := filepath.Dir(configPath)
	paths := make([]string, 0, len(c.Wheels.Paths))
	for _, p := range c.Wheels.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		paths = append(paths, p)
	}
	return paths
}

// ResolveExcludes anchors path-like exclusions to the config directory.
// Entries without a separator are base-name patterns and are kept as given.
func (c *ProjectConfig) ResolveExcludes(configPath string) []string {
	dir := filepath.Dir(configPath)
	excludes := make([]string, 0, len(c.Wheels.Exclude))
	for _, e := range c.Wheels.Exclude {
		if !filepath.IsAbs(e) && strings.ContainsRune(filepath.ToSlash(e), '/') {
			e = filepath.Join(dir, e)
		}
		excludes = append(excludes, e)
	}
	return excludes
}

func applyEnv(cfg *ProjectConfig) error {
	if dsn := strings.TrimSpace(os.Getenv(EnvStoreDSN)); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if addr := strings.TrimSpace(os.Getenv(EnvMetricsAddr)); addr != "" {
		cfg.Metrics.Addr = addr
	}
	if raw := strings.TrimSpace(os.Getenv(EnvCacheSize)); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheSize, err)
		}
		cfg.Cache.Size = size
	}
	return nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Wheels.Paths) == 0 {
		return fmt.Errorf("at least one wheel path is required")
	}
	for i, p := range cfg.Wheels.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("wheel path %d is empty", i)
		}
	}
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("cache size must not be negative: %d", cfg.Cache.Size)
	}
	if dsn := cfg.Store.DSN; dsn != "" && !strings.HasPrefix(dsn, "sqlite://") &&
		!strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("unsupported store dsn scheme: %s", dsn)
	}

	seen := make(map[string]struct{})
	for i, p := range cfg.Presets {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("preset %d name is required", i)
		}
		if strings.TrimSpace(p.Wheel) == "" {
			return fmt.Errorf("preset %s wheel is required", p.Name)
		}
		key := strings.ToLower(p.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate preset name: %s", p.Name)
		}
		seen[key] = struct{}{}
	}

	return nil
}
