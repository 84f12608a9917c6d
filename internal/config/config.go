// Package config handles user settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds user settings stored in the YAML config file.
type Config struct {
	// AuthorSeparator joins formatted authors in the author field.
	AuthorSeparator string `yaml:"multiple-authors-separator,omitempty"`
	// AuthorFormat is the per-author template, e.g. "{au[family]}, {au[given]}".
	AuthorFormat string `yaml:"multiple-authors-format,omitempty"`
	// RefFormat is the citation-key template, e.g. "{doc[author]}{doc[year]}".
	RefFormat string `yaml:"ref-format,omitempty"`
	// Library is the path to the local sqlite document library.
	Library string `yaml:"library,omitempty"`
	// Editor overrides $EDITOR for interactive editing.
	Editor string `yaml:"editor,omitempty"`
	// CrossrefMailto is included in crossref requests per their polite-pool
	// guidelines.
	CrossrefMailto string `yaml:"crossref-mailto,omitempty"`
}

const (
	configDirName  = "bibflow"
	configFileName = "config.yaml"
	libraryDBFile  = "library.db"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "BIBFLOW_CONFIG"

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		AuthorSeparator: " and ",
		AuthorFormat:    "{au[family]}, {au[given]}",
		RefFormat:       "{doc[author]}{doc[year]}",
	}
}

// Path returns the config file location: $BIBFLOW_CONFIG if set, otherwise
// ~/.config/bibflow/config.yaml.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, configDirName, configFileName)
}

// LibraryPath resolves the library database path: configured value if set,
// otherwise ~/.local/share/bibflow/library.db.
func (c *Config) LibraryPath() string {
	if c.Library != "" {
		return ExpandPath(c.Library)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", configDirName, libraryDBFile)
}

// Load reads the config file, layering it over defaults. A missing file is
// not an error. A .env file in the working directory is loaded first so
// settings like CROSSREF_MAILTO can live there.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(Path())
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save writes configuration, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// applyEnv overlays environment variables onto the config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CROSSREF_MAILTO"); v != "" {
		cfg.CrossrefMailto = v
	}
	if v := os.Getenv("BIBFLOW_LIBRARY"); v != "" {
		cfg.Library = v
	}
	if cfg.Editor == "" {
		cfg.Editor = os.Getenv("EDITOR")
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
