package config

import (
	"flag"

	"github.com/Faultbox/planloft/internal/engine/cache"
)

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers = flag.Int("workers", 0, "Number of generation workers")
	flagTimeout = flag.Duration("timeout", 0, "Per-element generation timeout")
	flagQuality = flag.String("quality", "", "Mesh quality tier (high or low)")
	flagOut     = flag.String("out", "", "Output directory for generated meshes")
	flagStore   = flag.String("store", "", "Geometry store backend (memory, file or redis)")
	flagAddr    = flag.String("addr", "", "Daemon listen address")
	flagNoCache = flag.Bool("no-cache", false, "Bypass the geometry cache")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Engine.Dispatch.Workers = *flagWorkers
	}
	if *flagTimeout > 0 {
		cfg.Engine.Dispatch.Timeout = *flagTimeout
	}
	if *flagQuality != "" {
		cfg.Output.Quality = *flagQuality
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagStore != "" {
		cfg.Store.Enabled = true
		cfg.Store.Type = cache.StoreType(*flagStore)
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagNoCache {
		cfg.Output.NoCache = true
	}
}
