package config

import (
	"time"

	"github.com/ziadkadry99/pagedit/internal/serializer"
)

// BatchMode selects what `pagedit batch` does with each page.
type BatchMode string

const (
	BatchPrepare BatchMode = "prepare"
	BatchSave    BatchMode = "save"
)

// Config is the top-level pagedit configuration, corresponding to .pagedit.yml.
type Config struct {
	OutputDir      string                   `yaml:"output_dir" koanf:"output_dir"`
	OutputName     string                   `yaml:"output_name" koanf:"output_name"`
	SwipeThreshold float64                  `yaml:"swipe_threshold" koanf:"swipe_threshold"`
	Format         serializer.FormatOptions `yaml:"format" koanf:"format"`
	Server         ServerConfig             `yaml:"server" koanf:"server"`
	Editor         EditorConfig             `yaml:"editor" koanf:"editor"`
	Batch          BatchConfig              `yaml:"batch" koanf:"batch"`
	Status         StatusConfig             `yaml:"status" koanf:"status"`
}

// ServerConfig holds editor server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// EditorConfig holds editing behaviour.
type EditorConfig struct {
	ConfirmDeletes     bool   `yaml:"confirm_deletes" koanf:"confirm_deletes"`
	DefaultProductName string `yaml:"default_product_name" koanf:"default_product_name"`
	Sanitize           bool   `yaml:"sanitize" koanf:"sanitize"`
}

// BatchConfig selects the pages a batch run visits.
type BatchConfig struct {
	Mode    BatchMode `yaml:"mode" koanf:"mode"`
	Include []string  `yaml:"include" koanf:"include"`
	Exclude []string  `yaml:"exclude" koanf:"exclude"`
}

// StatusConfig controls how long save results stay on the status line.
type StatusConfig struct {
	SuccessTTL time.Duration `yaml:"success_ttl" koanf:"success_ttl"`
	ErrorTTL   time.Duration `yaml:"error_ttl" koanf:"error_ttl"`
}
