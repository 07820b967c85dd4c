// Package bootstrap loads a project's .howth/project.yaml: the release
// channel and cache directory override a daemon and its CLI clients
// agree on for one project. Absent a file, sane defaults apply so a
// project with no config at all still works.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultChannel is used when a project's config omits "channel".
const DefaultChannel = "stable"

// Config is the parsed .howth/project.yaml.
type Config struct {
	// Channel selects which release channel's behavior this project
	// opts into: "stable", "nightly", or "dev".
	Channel string `yaml:"channel"`

	// CacheDir overrides the daemon's build/package cache location.
	// Relative paths are resolved against the project root. Empty
	// means "daemon picks its own default".
	CacheDir string `yaml:"cache_dir"`
}

func defaultConfig() *Config {
	return &Config{Channel: DefaultChannel}
}

// Path returns where a project's config file lives.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ".howth", "project.yaml")
}

// Load reads projectRoot's config file, falling back to defaultConfig()
// when it doesn't exist. An empty "channel" in a present file is filled
// in with DefaultChannel rather than left blank, so callers never need
// their own fallback.
func Load(projectRoot string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(Path(projectRoot))
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("read project config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", Path(projectRoot), err)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.CacheDir != "" && !filepath.IsAbs(cfg.CacheDir) {
		cfg.CacheDir = filepath.Join(projectRoot, cfg.CacheDir)
	}
	return cfg, nil
}

// Save writes cfg to projectRoot's config file, creating the .howth
// directory if needed.
func Save(projectRoot string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	path := Path(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
