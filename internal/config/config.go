// Package config loads the optional .tags.yaml project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up in the repository root.
const FileName = ".tags.yaml"

type Config struct {
	// Languages holds per-language settings keyed by language name.
	Languages map[string]Language `yaml:"languages"`
	// Exclude lists doublestar globs, relative to the indexed root, of paths
	// to skip.
	Exclude []string `yaml:"exclude"`
	// Filter is a Risor expression applied to every tag.
	Filter string `yaml:"filter"`
	// DB overrides the index database path.
	DB string `yaml:"db"`
	// Workers bounds parallel indexing; zero means one per CPU.
	Workers int `yaml:"workers"`

	dir string
}

type Language struct {
	// Query is a path to a tags query file replacing the built-in one.
	Query string `yaml:"query"`
}

// Load reads the config at path. A missing file yields an empty Config.
// TAGS_DB and TAGS_FILTER, from the environment or a .env file, override the
// file's values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{dir: filepath.Dir(path)}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if db := os.Getenv("TAGS_DB"); db != "" {
		cfg.DB = db
	}
	if filter := os.Getenv("TAGS_FILTER"); filter != "" {
		cfg.Filter = filter
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("config: workers must not be negative, got %d", cfg.Workers)
	}
	return cfg, nil
}

// QueryOverrides reads the query files named in the config, resolving
// relative paths against the config's directory.
func (c *Config) QueryOverrides() (map[string]string, error) {
	overrides := make(map[string]string)
	for lang, l := range c.Languages {
		if l.Query == "" {
			continue
		}
		path := l.Query
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: query for %s: %w", lang, err)
		}
		overrides[lang] = string(data)
	}
	return overrides, nil
}
