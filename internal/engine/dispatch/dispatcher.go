package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/internal/engine/pipeline"
)

// Dispatch errors.
var (
	// ErrTimeout is returned when no response arrives within the deadline.
	// Retriable: the request can simply be submitted again.
	ErrTimeout = errors.New("generation timed out")

	// ErrClosed is returned for requests submitted to, or in flight on, a
	// closed dispatcher.
	ErrClosed = errors.New("dispatcher is closed")

	// ErrWorkerFailure wraps an error reported by a worker. Not retriable
	// without changing the input.
	ErrWorkerFailure = errors.New("worker failure")
)

// DefaultTimeout bounds how long a request may stay pending.
const DefaultTimeout = 15 * time.Second

// Config sets the dispatcher's pool shape and deadline.
type Config struct {
	// Workers is the number of parallel generation workers. Zero disables
	// the pool; every request then short-circuits to a synchronous proxy.
	Workers int `yaml:"workers" json:"workers"`

	// QueueSize is the job queue depth. When the queue is full, requests
	// fall back to synchronous proxy generation instead of blocking.
	QueueSize int `yaml:"queue_size" json:"queueSize"`

	// Timeout is the per-request deadline. Zero selects DefaultTimeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns the dispatcher configuration used when none is
// given: one worker, matching the single parallel generation context the
// engine was designed around.
func DefaultConfig() Config {
	return Config{
		Workers:   1,
		QueueSize: 64,
		Timeout:   DefaultTimeout,
	}
}

// Result is the outcome of one submitted request. Exactly one of Buffer
// or Err is set. Proxy marks buffers produced by the synchronous fallback
// path rather than a worker.
type Result struct {
	Buffer *mesh.Buffer
	Err    error
	Proxy  bool
}

type pending struct {
	ch    chan Result
	timer *time.Timer
}

// Dispatcher owns the worker pool and the pending-request table. Requests
// and responses are matched solely by correlation id, so completions may
// arrive in any order.
type Dispatcher struct {
	cfg    Config
	logger *zap.Logger

	// build is the generation entry point, swappable in tests.
	build func(mesh.ElementSpec, mesh.Options) (*mesh.Buffer, error)

	jobs   chan Request
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*pending
	closed  bool

	closeOnce sync.Once
}

// New starts a dispatcher with the given pool configuration. A nil logger
// disables logging.
func New(cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "dispatch")),
		build:   pipeline.Build,
		jobs:    make(chan Request, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*pending),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Submit queues one generation request and returns its correlation id
// along with a channel that receives exactly one result. Submit never
// blocks: when no worker can take the job, the result is produced by the
// synchronous proxy path before Submit returns.
func (d *Dispatcher) Submit(spec mesh.ElementSpec, opts mesh.Options) (string, <-chan Result) {
	id := uuid.New().String()
	ch := make(chan Result, 1)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		ch <- Result{Err: ErrClosed}
		return id, ch
	}

	if d.cfg.Workers == 0 {
		d.mu.Unlock()
		d.fallback(id, spec, ch)
		return id, ch
	}

	p := &pending{ch: ch}
	p.timer = time.AfterFunc(d.cfg.Timeout, func() { d.expire(id) })
	d.pending[id] = p
	d.mu.Unlock()

	req := Request{CorrelationID: id, ElementSpec: spec, Options: opts}
	select {
	case d.jobs <- req:
	default:
		// Queue full. Withdraw the pending entry and serve the caller
		// synchronously instead of blocking.
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
		p.timer.Stop()
		d.fallback(id, spec, ch)
	}

	return id, ch
}

// fallback produces a synchronous proxy result on the caller's goroutine.
func (d *Dispatcher) fallback(id string, spec mesh.ElementSpec, ch chan Result) {
	d.logger.Debug("falling back to proxy generation",
		zap.String("correlationId", id),
		zap.String("element", spec.ID),
	)
	buf, err := pipeline.BuildProxy(spec)
	if err != nil {
		ch <- Result{Err: err, Proxy: true}
		return
	}
	ch <- Result{Buffer: buf, Proxy: true}
}

// Pending returns the number of requests awaiting a response.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close stops the workers and fails every in-flight request with
// ErrClosed. Idempotent and safe to call while requests are in flight.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		orphaned := d.pending
		d.pending = make(map[string]*pending)
		d.mu.Unlock()

		d.cancel()
		d.wg.Wait()

		for _, p := range orphaned {
			p.timer.Stop()
			p.ch <- Result{Err: ErrClosed}
		}
	})
	return nil
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case req := <-d.jobs:
			d.resolve(d.run(req))
		case <-d.ctx.Done():
			return
		}
	}
}

// run executes one job and packages the outcome as a response message.
// Panics in the geometry kernels are contained here so a malformed
// element can never take the worker down.
func (d *Dispatcher) run(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("generation panicked",
				zap.String("correlationId", req.CorrelationID),
				zap.String("element", req.ElementSpec.ID),
				zap.Any("panic", r),
			)
			resp = NewFailure(req.CorrelationID, fmt.Errorf("generation panicked: %v", r))
		}
	}()

	buf, err := d.build(req.ElementSpec, req.Options)
	if err != nil {
		return NewFailure(req.CorrelationID, err)
	}
	return NewSuccess(req.CorrelationID, buf)
}

// resolve completes the pending request matching the response. Responses
// whose correlation id is unknown, typically because the request already
// timed out, are dropped.
func (d *Dispatcher) resolve(resp Response) {
	d.mu.Lock()
	p, ok := d.pending[resp.CorrelationID]
	if ok {
		delete(d.pending, resp.CorrelationID)
	}
	d.mu.Unlock()

	if !ok {
		d.logger.Debug("dropping response with no pending request",
			zap.String("correlationId", resp.CorrelationID))
		return
	}
	p.timer.Stop()

	if !resp.Success {
		d.logger.Warn("generation failed",
			zap.String("correlationId", resp.CorrelationID),
			zap.String("error", resp.Error),
		)
		p.ch <- Result{Err: fmt.Errorf("%w: %s", ErrWorkerFailure, resp.Error)}
		return
	}

	buf, err := resp.Buffer()
	if err != nil {
		p.ch <- Result{Err: fmt.Errorf("%w: %v", ErrWorkerFailure, err)}
		return
	}
	p.ch <- Result{Buffer: buf}
}

// expire rejects a request whose deadline passed before any response.
func (d *Dispatcher) expire(id string) {
	d.mu.Lock()
	p, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	d.mu.Unlock()

	if !ok {
		return
	}
	d.logger.Warn("request timed out", zap.String("correlationId", id))
	p.ch <- Result{Err: ErrTimeout}
}
