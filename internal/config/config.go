package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// FileNames are the project configuration files looked up in the root, in
// order of preference.
var FileNames = []string{".liblinker.toml", ".liblinker.json"}

type Config struct {
	Manifest           string   `json:"manifest"            toml:"manifest"`
	DependencyFields   []string `json:"dependency_fields"   toml:"dependency_fields"`
	SubpathImports     bool     `json:"subpath_imports"     toml:"subpath_imports"`
	Include            []string `json:"include"             toml:"include"`
	Exclude            []string `json:"exclude"             toml:"exclude"`
	PublishDiagnostics bool     `json:"publish_diagnostics" toml:"publish_diagnostics"`
	WatchDebounceMS    int      `json:"watch_debounce_ms"   toml:"watch_debounce_ms"`
}

// Default returns a fresh copy of the default configuration.
func Default() Config {
	return Config{
		Manifest:         "package.json",
		DependencyFields: []string{"dependencies"},
		Include:          []string{"**/*.{js,jsx,ts,tsx,mjs,cjs}"},
		Exclude:          []string{"**/node_modules/**"},
		WatchDebounceMS:  100,
	}
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// Validate checks the glob patterns and numeric limits.
func (c Config) Validate() error {
	if c.Manifest == "" {
		return fmt.Errorf("manifest must not be empty")
	}
	if filepath.Base(c.Manifest) != c.Manifest {
		return fmt.Errorf("manifest %q must be a file name", c.Manifest)
	}
	if c.WatchDebounceMS < 0 {
		return fmt.Errorf("watch_debounce_ms must not be negative")
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

// Overlay reads v over base. Only fields present in v overwrite.
func Overlay(base Config, v any) (Config, error) {
	cfg := base.clone()

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Merge overlays the settings in the file at path on base. The format is
// chosen by extension.
func Merge(base Config, path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".toml":
		return decodeTOML(f, base)
	case ".json":
		return decodeJSON(f, base)
	default:
		return Config{}, fmt.Errorf("unsupported config file %s", path)
	}
}

// LoadFile reads the file at path over the defaults.
func LoadFile(path string) (Config, error) {
	return Merge(Default(), path)
}

// Find returns the first configuration file present in root, or "".
func Find(root string) string {
	for _, name := range FileNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func decodeJSON(r io.Reader, cfg Config) (Config, error) {
	cfg = cfg.clone()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode json config: %w", err)
	}
	return cfg, cfg.Validate()
}

func decodeTOML(r io.Reader, cfg Config) (Config, error) {
	cfg = cfg.clone()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml config: %w", err)
	}
	return cfg, cfg.Validate()
}

// clone detaches the slices so decoding never writes into the caller's
// backing arrays.
func (c Config) clone() Config {
	c.DependencyFields = append([]string(nil), c.DependencyFields...)
	c.Include = append([]string(nil), c.Include...)
	c.Exclude = append([]string(nil), c.Exclude...)
	return c
}
