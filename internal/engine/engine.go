// Package engine is the public face of the mesh generator. It validates
// element specs, consults the cache tiers, dispatches generation to the
// worker pool, and hands every caller an independently owned buffer.
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/planloft/internal/engine/cache"
	"github.com/Faultbox/planloft/internal/engine/dispatch"
	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/internal/engine/pipeline"
	"github.com/Faultbox/planloft/internal/metrics"
)

// storeTimeout bounds one shared-tier round trip so a slow backend can
// never stall generation.
const storeTimeout = 2 * time.Second

// Config sets the engine's cache bound and worker pool shape.
type Config struct {
	// CacheBound is the local cache entry limit. Zero selects the default.
	CacheBound int `yaml:"cache_bound" json:"cacheBound"`

	// Dispatch configures the worker pool and request deadline.
	Dispatch dispatch.Config `yaml:"dispatch" json:"dispatch"`
}

// DefaultConfig returns the engine configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		CacheBound: cache.DefaultBound,
		Dispatch:   dispatch.DefaultConfig(),
	}
}

// Options control one engine request.
type Options struct {
	mesh.Options `yaml:",inline"`

	// UseCache consults the cache tiers before generating and stores the
	// finished buffer afterwards.
	UseCache bool `json:"useCache" yaml:"use_cache"`
}

// DefaultOptions returns high-quality options with caching enabled.
func DefaultOptions() Options {
	return Options{Options: mesh.DefaultOptions(), UseCache: true}
}

// Result is the outcome of one geometry request. Exactly one of Buffer or
// Err is set. Cached marks buffers served from a cache tier; Proxy marks
// buffers from the synchronous fallback path.
type Result struct {
	Buffer *mesh.Buffer
	Err    error
	Cached bool
	Proxy  bool
}

// Engine owns the local cache, the optional shared store, and the worker
// dispatcher. Construct with New; there is no process-wide instance.
type Engine struct {
	cfg        Config
	logger     *zap.Logger
	collector  *metrics.Collector
	cache      *cache.Cache
	store      cache.Store
	dispatcher *dispatch.Dispatcher
	flight     singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New constructs an engine. store may be nil to disable the shared tier;
// the caller keeps ownership of a store it passes in. collector may be
// nil to discard metrics, logger may be nil to disable logging.
func New(cfg Config, store cache.Store, collector *metrics.Collector, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.New("planloft", prometheus.NewRegistry())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:        cfg,
		logger:     logger.With(zap.String("component", "engine")),
		collector:  collector,
		cache:      cache.New(cfg.CacheBound),
		store:      store,
		dispatcher: dispatch.New(cfg.Dispatch, logger),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RequestGeometry submits one element for generation and returns a
// channel that receives exactly one result. The call never blocks: cache
// hits and validation failures resolve before it returns, everything else
// resolves when the worker answers. Concurrent requests for an identical
// fingerprint are coalesced into one generation; every caller still
// receives its own copy.
func (e *Engine) RequestGeometry(spec mesh.ElementSpec, opts Options) <-chan Result {
	ch := make(chan Result, 1)

	if e.closed.Load() {
		ch <- Result{Err: dispatch.ErrClosed}
		return ch
	}

	if !opts.Quality.Valid() {
		opts.Quality = mesh.QualityHigh
	}

	// Preparation errors fail fast, before any dispatch.
	if err := spec.Validate(); err != nil {
		e.logger.Warn("rejecting element", zap.String("element", spec.ID), zap.Error(err))
		e.collector.RecordRequest(string(spec.Form), string(opts.Quality), metrics.StatusError, 0)
		ch <- Result{Err: err}
		return ch
	}

	key := cache.Fingerprint(spec, opts.Options)

	if opts.UseCache {
		if buf, ok := e.cache.Get(key); ok {
			e.collector.RecordCacheHit(metrics.TierLocal)
			ch <- Result{Buffer: buf, Cached: true}
			return ch
		}
		e.collector.RecordCacheMiss(metrics.TierLocal)
	}

	go func() {
		ch <- e.generate(key, spec, opts)
	}()
	return ch
}

// Generate runs one request to completion, honoring ctx cancellation.
func (e *Engine) Generate(ctx context.Context, spec mesh.ElementSpec, opts Options) (*mesh.Buffer, error) {
	select {
	case res := <-e.RequestGeometry(spec, opts):
		return res.Buffer, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GenerateProxy builds the cheap preview synchronously on the caller's
// goroutine: plain extrusion, low quality, no bevel or morph. Callers
// render it immediately and swap in the full result when it settles.
func (e *Engine) GenerateProxy(spec mesh.ElementSpec) (*mesh.Buffer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	buf, err := pipeline.BuildProxy(spec)
	if err != nil {
		e.collector.RecordRequest(string(spec.Form), string(mesh.QualityLow), metrics.StatusError, time.Since(start))
		return nil, err
	}
	e.collector.RecordRequest(string(spec.Form), string(mesh.QualityLow), metrics.StatusProxy, time.Since(start))
	return buf, nil
}

// ClearCache drops every locally cached buffer. The shared store is left
// untouched; it is shared with other processes.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	e.logger.Info("cache cleared")
}

// CacheStats returns a snapshot of the local cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Pending returns the number of requests awaiting a worker response.
func (e *Engine) Pending() int {
	return e.dispatcher.Pending()
}

// Close shuts the engine down: the dispatcher stops, in-flight requests
// settle with ErrClosed, and the local cache is released. Idempotent.
// A store passed to New is not closed; its opener closes it.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.cancel()
	e.dispatcher.Close()
	e.cache.Clear()
	e.logger.Info("engine closed")
	return nil
}

// flightResult is the value shared between coalesced callers.
type flightResult struct {
	buf    *mesh.Buffer
	cached bool
	proxy  bool
}

// generate runs the miss path: shared store lookup, worker dispatch, and
// cache population. Runs on a per-request goroutine.
func (e *Engine) generate(key string, spec mesh.ElementSpec, opts Options) Result {
	start := time.Now()
	e.collector.RequestStarted()
	defer e.collector.RequestFinished()

	v, err, shared := e.flight.Do(key, func() (interface{}, error) {
		if opts.UseCache && e.store != nil {
			if buf, ok := e.storeGet(key); ok {
				evicted := e.cache.Insert(key, buf.Clone())
				e.collector.RecordCacheEvictions(evicted)
				return flightResult{buf: buf, cached: true}, nil
			}
		}

		_, rch := e.dispatcher.Submit(spec, opts.Options)
		res := <-rch
		if res.Err != nil {
			return nil, res.Err
		}

		if opts.UseCache && !res.Proxy {
			evicted := e.cache.Insert(key, res.Buffer.Clone())
			e.collector.RecordCacheEvictions(evicted)
			e.storePut(key, res.Buffer)
		}
		return flightResult{buf: res.Buffer, proxy: res.Proxy}, nil
	})

	elapsed := time.Since(start)
	quality := string(opts.Quality)
	if err != nil {
		status := metrics.StatusError
		if errors.Is(err, dispatch.ErrTimeout) {
			status = metrics.StatusTimeout
		}
		e.collector.RecordRequest(string(spec.Form), quality, status, elapsed)
		return Result{Err: err}
	}

	fr := v.(flightResult)
	status := metrics.StatusOK
	if fr.proxy {
		status = metrics.StatusProxy
	}
	e.collector.RecordRequest(string(spec.Form), quality, status, elapsed)
	e.collector.RecordMesh(quality, fr.buf.VertexCount())

	buf := fr.buf
	if shared {
		buf = buf.Clone()
	}
	return Result{Buffer: buf, Cached: fr.cached, Proxy: fr.proxy}
}

// storeGet reads one buffer from the shared tier, tolerating failures.
func (e *Engine) storeGet(key string) (*mesh.Buffer, bool) {
	ctx, cancel := context.WithTimeout(e.ctx, storeTimeout)
	defer cancel()

	buf, err := e.store.Get(ctx, key)
	if err == nil {
		e.collector.RecordCacheHit(metrics.TierStore)
		return buf, true
	}
	e.collector.RecordCacheMiss(metrics.TierStore)
	if !errors.Is(err, cache.ErrNotFound) {
		e.logger.Warn("store lookup failed", zap.String("fingerprint", key), zap.Error(err))
	}
	return nil, false
}

// storePut writes one buffer through to the shared tier, best effort.
func (e *Engine) storePut(key string, buf *mesh.Buffer) {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(e.ctx, storeTimeout)
	defer cancel()

	if err := e.store.Put(ctx, key, buf); err != nil {
		e.logger.Warn("store write failed", zap.String("fingerprint", key), zap.Error(err))
	}
}
