// planloft is a CLI for generating renderable mesh buffers from floor plans.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/planloft/internal/config"
	"github.com/Faultbox/planloft/internal/engine"
	"github.com/Faultbox/planloft/internal/engine/cache"
	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/internal/logger"
	"github.com/Faultbox/planloft/internal/plan"
	"github.com/Faultbox/planloft/pkg/formats"
)

func main() {
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "generate", "gen":
		cmdGenerate(rest)
	case "inspect":
		cmdInspect(rest)
	case "proxy":
		cmdProxy(rest)
	case "config":
		cmdConfig(rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`planloft - floor plan mesh generator

Usage:
  planloft [flags] <command> [options]

Commands:
  generate <plan>         Generate mesh buffers for every element in a plan
                          (-lod n, -adaptive, -tangents)
  inspect <file.plm> ...  Show the contents of generated mesh files
  proxy <plan> [id]       Generate placeholder geometry synchronously
  config [init [path]]    Print the effective config, or write it to disk

Flags (before the command):
  -config <path>          Config file to load
  -quality <tier>         Mesh quality tier: high or low
  -out <dir>              Output directory
  -workers <n>            Generation workers
  -store <backend>        Enable the shared store: memory, file or redis
  -no-cache               Bypass the geometry cache
  -debug                  Enable debug logging

Examples:
  planloft generate apartment.json
  planloft -quality low -out ./preview generate apartment.yaml
  planloft generate -lod 3 apartment.json
  planloft inspect meshes/room-1.plm`)
}

// loadConfig loads and merges configuration, exiting on failure.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// buildOptions translates output settings into engine options.
func buildOptions(cfg *config.Config) engine.Options {
	quality := mesh.Quality(cfg.Output.Quality)
	if !quality.Valid() {
		fmt.Fprintf(os.Stderr, "Unknown quality %q (use high or low)\n", cfg.Output.Quality)
		os.Exit(1)
	}
	return engine.Options{
		Options: mesh.Options{
			Quality:  quality,
			Adaptive: cfg.Output.Adaptive,
			Tangents: cfg.Output.Tangents,
		},
		UseCache: !cfg.Output.NoCache,
	}
}

// openEngine constructs the engine, opening the shared store when enabled.
// The caller closes the returned store after the engine.
func openEngine(cfg *config.Config) (*engine.Engine, cache.Store) {
	var store cache.Store
	if cfg.Store.Enabled {
		s, err := cache.OpenStore(cfg.Store.StoreConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		store = s
	}
	return engine.New(cfg.Engine, store, nil, logger.Log), store
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	lod := fs.Int("lod", 0, "LOD chain length per element (0 = base mesh only)")
	adaptive := fs.Bool("adaptive", false, "Subdivide large triangles on organic high-quality meshes")
	tangents := fs.Bool("tangents", false, "Emit the tangent attribute")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: planloft generate [-lod n] [-adaptive] [-tangents] <plan>")
		os.Exit(1)
	}

	cfg := loadConfig()
	if *lod == 0 {
		*lod = cfg.Output.LODLevels
	}
	if *adaptive {
		cfg.Output.Adaptive = true
	}
	if *tangents {
		cfg.Output.Tangents = true
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	p, err := plan.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := buildOptions(cfg)
	eng, store := openEngine(cfg)
	if store != nil {
		defer store.Close()
	}
	defer eng.Close()

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	var failed atomic.Int32

	g := new(errgroup.Group)
	if cfg.Output.Concurrency > 0 {
		g.SetLimit(cfg.Output.Concurrency)
	}

	ctx := context.Background()
	for _, el := range p.Elements {
		el := el
		g.Go(func() error {
			// One bad element must not stop the rest of the plan.
			if err := generateElement(ctx, eng, el, opts, cfg.Output.Dir, *lod); err != nil {
				logger.Error("generation failed", zap.String("element", el.ID), zap.Error(err))
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	stats := eng.CacheStats()
	logger.Info("plan finished",
		zap.String("plan", fs.Arg(0)),
		zap.Int("elements", len(p.Elements)),
		zap.Int32("failed", failed.Load()),
		zap.Uint64("cache_hits", stats.Hits),
		zap.Duration("elapsed", time.Since(start)),
	)

	ok := len(p.Elements) - int(failed.Load())
	fmt.Printf("Generated %d/%d meshes in %s\n", ok, len(p.Elements), time.Since(start).Round(time.Millisecond))
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

// generateElement builds one element and writes its base mesh, plus the
// rest of the LOD chain when one was requested.
func generateElement(ctx context.Context, eng *engine.Engine, el mesh.ElementSpec, opts engine.Options, outDir string, lodLevels int) error {
	if lodLevels <= 1 {
		buf, err := eng.Generate(ctx, el, opts)
		if err != nil {
			return err
		}
		return writeMesh(filepath.Join(outDir, el.ID+".plm"), buf)
	}

	lods, err := eng.GenerateLODs(ctx, el, opts, lodLevels)
	for _, l := range lods {
		name := el.ID + ".plm"
		if l.Level > 0 {
			name = fmt.Sprintf("%s.lod%d.plm", el.ID, l.Level)
		}
		if werr := writeMesh(filepath.Join(outDir, name), l.Buffer); werr != nil {
			return werr
		}
	}
	// A partial chain already wrote its good levels; still report what failed.
	return err
}

func writeMesh(path string, buf *mesh.Buffer) error {
	if err := formats.WritePLMFile(path, mesh.ToPLM(buf)); err != nil {
		return err
	}
	logger.Debug("wrote mesh",
		zap.String("path", path),
		zap.Int("vertices", buf.VertexCount()),
		zap.Int("triangles", buf.TriangleCount()),
	)
	return nil
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: planloft inspect <file.plm> ...")
		os.Exit(1)
	}

	for i, path := range fs.Args() {
		if i > 0 {
			fmt.Println()
		}

		p, err := formats.ParsePLMFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		st, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("File:      %s\n", path)
		fmt.Printf("Version:   %d\n", p.Version)
		fmt.Printf("Size:      %.1f KB\n", float64(st.Size())/1024)
		fmt.Printf("Vertices:  %d\n", p.VertexCount())
		fmt.Printf("Triangles: %d\n", len(p.Indices)/3)
		fmt.Printf("Tangents:  %v\n", len(p.Tangents) > 0)
		fmt.Printf("Bounds:    (%.3f, %.3f, %.3f) to (%.3f, %.3f, %.3f)\n",
			p.BoundsMin[0], p.BoundsMin[1], p.BoundsMin[2],
			p.BoundsMax[0], p.BoundsMax[1], p.BoundsMax[2])
	}
}

func cmdProxy(args []string) {
	fs := flag.NewFlagSet("proxy", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: planloft proxy <plan> [id]")
		os.Exit(1)
	}

	cfg := loadConfig()
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	p, err := plan.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elements := p.Elements
	if fs.NArg() > 1 {
		el, ok := p.Find(fs.Arg(1))
		if !ok {
			fmt.Fprintf(os.Stderr, "Element not found: %s\n", fs.Arg(1))
			os.Exit(1)
		}
		elements = []mesh.ElementSpec{el}
	}

	eng := engine.New(cfg.Engine, nil, nil, logger.Log)
	defer eng.Close()

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	written := 0
	for _, el := range elements {
		buf, err := eng.GenerateProxy(el)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", el.ID, err)
			continue
		}

		path := filepath.Join(cfg.Output.Dir, el.ID+".proxy.plm")
		if err := writeMesh(path, buf); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			continue
		}

		fmt.Printf("Proxy: %s (%d vertices)\n", path, buf.VertexCount())
		written++
	}

	if written < len(elements) {
		fmt.Fprintf(os.Stderr, "\n%d of %d proxies written\n", written, len(elements))
		os.Exit(1)
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fs.Parse(args)

	cfg := loadConfig()

	if fs.NArg() > 0 && fs.Arg(0) == "init" {
		path := filepath.Join(config.ConfigDir(), "config.yaml")
		var err error
		if fs.NArg() > 1 {
			path = fs.Arg(1)
			err = cfg.SaveTo(path)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
		return
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}
