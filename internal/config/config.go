package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/pagedit/internal/editor"
	"github.com/ziadkadry99/pagedit/internal/serializer"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "PAGEDIT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PAGEDIT_*).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: PAGEDIT_SERVER__PORT -> server.port.
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps PAGEDIT_BATCH__INCLUDE=a,b to batch.include=[a b].
func envKey(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	switch key {
	case "batch.include", "batch.exclude":
		return key, splitAndTrim(value)
	}
	return key, value
}

// Save writes c as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validModes is the set of recognized batch modes.
var validModes = map[BatchMode]bool{
	BatchPrepare: true,
	BatchSave:    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.OutputName == "" || strings.ContainsAny(c.OutputName, `/\`) {
		return fmt.Errorf("invalid output_name %q: must be a plain file name", c.OutputName)
	}
	if c.SwipeThreshold <= 0 {
		return fmt.Errorf("swipe_threshold must be positive")
	}
	if c.Format.MaxChars <= 0 || c.Format.MaxLines <= 0 {
		return fmt.Errorf("format.max_chars and format.max_lines must be positive")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Batch.Mode != "" && !validModes[c.Batch.Mode] {
		return fmt.Errorf("invalid batch.mode %q: must be one of prepare, save", c.Batch.Mode)
	}
	for _, p := range append(append([]string{}, c.Batch.Include...), c.Batch.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid batch pattern %q", p)
		}
	}
	if c.Status.SuccessTTL < 0 || c.Status.ErrorTTL < 0 {
		return fmt.Errorf("status TTLs must be non-negative")
	}
	return nil
}

// SaveOptions returns the serializer settings of c.
func (c *Config) SaveOptions() serializer.Options {
	return serializer.Options{
		Name:       c.OutputName,
		Format:     c.Format,
		SuccessTTL: c.Status.SuccessTTL,
		ErrorTTL:   c.Status.ErrorTTL,
	}
}

// EditorOptions returns the editor settings of c. Confirmation prompts are
// left to the caller.
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		SwipeThreshold:     c.SwipeThreshold,
		Save:               c.SaveOptions(),
		Sanitize:           c.Editor.Sanitize,
		DefaultProductName: c.Editor.DefaultProductName,
	}
}
