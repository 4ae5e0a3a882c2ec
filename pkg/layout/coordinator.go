package layout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ha1tch/codemap/pkg/autolayout"
	"github.com/ha1tch/codemap/pkg/scene"
)

// ErrStale settles a run that was superseded before its result arrived.
var ErrStale = errors.New("layout result superseded")

// Recorder receives coordinator measurements. internal/metrics provides a
// Prometheus implementation.
type Recorder interface {
	LayoutStarted(strategy string, algorithm string, nodes int)
	LayoutFinished(strategy string, algorithm string, d time.Duration, err error)
	LayoutDiscarded(strategy string)
}

type nopRecorder struct{}

func (nopRecorder) LayoutStarted(string, string, int)                   {}
func (nopRecorder) LayoutFinished(string, string, time.Duration, error) {}
func (nopRecorder) LayoutDiscarded(string)                              {}

// Pending is the coordinator-level handle of a run. It settles once the
// positions have been applied or the result has been discarded.
type Pending struct {
	Strategy  Strategy
	Algorithm string
	Nodes     int

	done chan struct{}
	err  error
}

func newPending(s Strategy, alg string, nodes int) *Pending {
	return &Pending{Strategy: s, Algorithm: alg, Nodes: nodes, done: make(chan struct{})}
}

func (p *Pending) settle(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the run has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns the run's error. It is only meaningful after Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the run settles or ctx ends. With a background run the
// settlement happens on the scene's goroutine, so that goroutine must be
// processing dispatched work.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Coordinator picks the inline or background path for each layout run and
// applies results to the engine. All methods must be called on the
// goroutine that owns the engine.
type Coordinator struct {
	engine   scene.Engine
	dispatch scene.Dispatcher
	worker   *Worker
	cfg      Config
	log      *zap.Logger
	rec      Recorder
	now      func() time.Time

	generation uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(c *Coordinator) { c.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.rec = r }
}

// WithWorker replaces the background worker.
func WithWorker(w *Worker) Option {
	return func(c *Coordinator) { c.worker = w }
}

// NewCoordinator creates a coordinator for engine. Background results
// re-enter the engine's goroutine through dispatch.
func NewCoordinator(engine scene.Engine, dispatch scene.Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:   engine,
		dispatch: dispatch,
		cfg:      DefaultConfig(),
		log:      zap.NewNop(),
		rec:      nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.worker == nil {
		c.worker = NewWorker(WithWorkerLogger(c.log))
	}
	return c
}

// Config returns the active configuration.
func (c *Coordinator) Config() Config { return c.cfg }

// SetConfig replaces the configuration for later runs.
func (c *Coordinator) SetConfig(cfg Config) { c.cfg = cfg }

// Worker returns the background worker.
func (c *Coordinator) Worker() *Worker { return c.worker }

// Run lays out els with algorithm alg. els must be the elements currently
// set on the engine. Any earlier run still in flight is superseded. The
// returned Pending settles after positions are applied (nil), on failure,
// or when the result is discarded (ErrStale, ErrTerminated).
func (c *Coordinator) Run(els []scene.Element, alg string, q Quality) *Pending {
	c.generation++
	gen := c.generation
	c.worker.Terminate()

	nodes := countNodes(els)
	large, strategy := Classify(alg, nodes, c.cfg)
	params := BuildParams(alg, q, large, c.cfg)
	pending := newPending(strategy, alg, nodes)

	c.log.Debug("layout requested",
		zap.String("algorithm", alg),
		zap.String("strategy", strategy.String()),
		zap.Int("nodes", nodes),
		zap.Bool("large", large))
	c.rec.LayoutStarted(strategy.String(), alg, nodes)

	if strategy == Inline {
		start := c.now()
		err := c.engine.RunLayout(params)
		c.rec.LayoutFinished(strategy.String(), alg, c.now().Sub(start), err)
		if err != nil {
			c.log.Warn("layout failed", zap.String("algorithm", alg), zap.Error(err))
		}
		pending.settle(err)
		return pending
	}

	req := Request{
		Graph:  scene.LayoutGraph(els, c.engine.Positions()),
		Params: params,
	}

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if c.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
	}

	start := c.now()
	job := c.worker.Compute(ctx, req)
	go func() {
		<-job.Done()
		cancel()
		pos, err := job.Result()
		c.dispatch.Dispatch(func() {
			c.finish(gen, pending, params.Padding, start, pos, err)
		})
	}()
	return pending
}

// finish runs on the engine's goroutine.
func (c *Coordinator) finish(gen uint64, pending *Pending, padding float64, start time.Time, pos autolayout.Positions, err error) {
	elapsed := c.now().Sub(start)
	strategy := pending.Strategy.String()

	if gen != c.generation {
		c.rec.LayoutDiscarded(strategy)
		c.log.Debug("stale layout result discarded",
			zap.String("algorithm", pending.Algorithm),
			zap.Duration("elapsed", elapsed))
		if errors.Is(err, ErrTerminated) {
			pending.settle(err)
		} else {
			pending.settle(ErrStale)
		}
		return
	}

	c.rec.LayoutFinished(strategy, pending.Algorithm, elapsed, err)
	if err != nil {
		c.log.Warn("background layout failed",
			zap.String("algorithm", pending.Algorithm),
			zap.Int("nodes", pending.Nodes),
			zap.Error(err))
		pending.settle(err)
		return
	}

	c.engine.SetPositions(pos)
	c.engine.Fit(padding)
	c.log.Debug("background layout applied",
		zap.Int("positions", len(pos)),
		zap.Duration("elapsed", elapsed))
	pending.settle(nil)
}

// Close supersedes any run in flight and stops the worker.
func (c *Coordinator) Close() {
	c.generation++
	c.worker.Close()
}

func countNodes(els []scene.Element) int {
	n := 0
	for _, el := range els {
		if el.IsNode() && !el.Data.Compound {
			n++
		}
	}
	return n
}
