package config

import (
	"time"

	"github.com/ziadkadry99/pagedit/internal/carousel"
	"github.com/ziadkadry99/pagedit/internal/serializer"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".pagedit.yml"

// DefaultExcludes are glob patterns skipped by batch runs by default.
var DefaultExcludes = []string{
	"node_modules/**",
	".git/**",
	"vendor/**",
	"dist/**",
	"**/*.min.html",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:      "dist",
		OutputName:     "index.html",
		SwipeThreshold: carousel.DefaultSwipeThreshold,
		Format:         serializer.DefaultFormat,
		Server: ServerConfig{
			Port: 8080,
		},
		Editor: EditorConfig{
			ConfirmDeletes: true,
			Sanitize:       true,
		},
		Batch: BatchConfig{
			Mode:    BatchSave,
			Include: []string{"**/*.html"},
			Exclude: DefaultExcludes,
		},
		Status: StatusConfig{
			SuccessTTL: 3 * time.Second,
			ErrorTTL:   5 * time.Second,
		},
	}
}
