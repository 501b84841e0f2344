// Package config handles engine configuration loading and management.
package config

import (
	"github.com/Faultbox/planloft/internal/engine"
	"github.com/Faultbox/planloft/internal/engine/cache"
	"github.com/Faultbox/planloft/internal/server"
)

// Config holds all planloft settings.
type Config struct {
	Engine  engine.Config `yaml:"engine"`
	Store   StoreConfig   `yaml:"store"`
	Server  server.Config `yaml:"server"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig controls the shared geometry store tier. When disabled the
// engine keeps only its in-process cache.
type StoreConfig struct {
	Enabled bool `yaml:"enabled"`

	cache.StoreConfig `yaml:",inline"`
}

// OutputConfig holds CLI generation settings.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Quality     string `yaml:"quality"`
	LODLevels   int    `yaml:"lod_levels"`
	Adaptive    bool   `yaml:"adaptive"`
	Tangents    bool   `yaml:"tangents"`
	Concurrency int    `yaml:"concurrency"`
	NoCache     bool   `yaml:"no_cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: engine.DefaultConfig(),
		Store: StoreConfig{
			Enabled:     false,
			StoreConfig: cache.DefaultStoreConfig(),
		},
		Server: server.DefaultConfig(),
		Output: OutputConfig{
			Dir:         "meshes",
			Quality:     "high",
			LODLevels:   0,
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}
