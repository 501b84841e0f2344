// planloftd serves floor plan mesh generation over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Faultbox/planloft/internal/config"
	"github.com/Faultbox/planloft/internal/engine"
	"github.com/Faultbox/planloft/internal/engine/cache"
	"github.com/Faultbox/planloft/internal/logger"
	"github.com/Faultbox/planloft/internal/metrics"
	"github.com/Faultbox/planloft/internal/server"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	log := logger.Build(cfg.Logging.Level, cfg.Logging.Format, fileCfg, true)
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New("planloft", reg)

	var store cache.Store
	if cfg.Store.Enabled {
		store, err = cache.OpenStore(cfg.Store.StoreConfig)
		if err != nil {
			log.Fatal("opening store", zap.Error(err))
		}
		defer store.Close()
		log.Info("store ready", zap.String("type", string(cfg.Store.Type)))
	}

	eng := engine.New(cfg.Engine, store, collector, log)
	defer eng.Close()

	srv := server.New(eng, store, reg, cfg.Server, log)
	if err := srv.Start(); err != nil {
		log.Fatal("starting server", zap.Error(err))
	}

	log.Info("planloftd ready",
		zap.String("addr", srv.Addr()),
		zap.Int("workers", cfg.Engine.Dispatch.Workers),
		zap.Int("cache_bound", cfg.Engine.CacheBound),
	)

	srv.WaitForShutdown()
}
