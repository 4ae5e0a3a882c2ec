package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ha1tch/codemap/pkg/autolayout"
)

// Worker errors.
var (
	ErrTerminated      = errors.New("layout worker terminated")
	ErrWorkerCrashed   = errors.New("layout worker crashed")
	ErrMalformedResult = errors.New("malformed layout result")
	ErrClosed          = errors.New("layout worker closed")
)

// Request is the self-contained input of a background run. It is encoded
// before the worker starts and decoded inside it, so the worker never sees
// live engine state.
type Request struct {
	Graph  autolayout.Graph  `json:"graph"`
	Params autolayout.Params `json:"params"`
}

type response struct {
	Positions autolayout.Positions `json:"positions"`
}

// ComputeFunc computes positions for a graph. autolayout.Run is the default.
type ComputeFunc func(ctx context.Context, g autolayout.Graph, p autolayout.Params) (autolayout.Positions, error)

// Job is the handle of one background run. It settles exactly once.
type Job struct {
	ID     string
	Nodes  int
	cancel context.CancelFunc

	once      sync.Once
	done      chan struct{}
	positions autolayout.Positions
	err       error
}

func newJob(nodes int, cancel context.CancelFunc) *Job {
	return &Job{
		ID:     uuid.NewString(),
		Nodes:  nodes,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (j *Job) settle(pos autolayout.Positions, err error) bool {
	settled := false
	j.once.Do(func() {
		j.positions, j.err = pos, err
		close(j.done)
		settled = true
	})
	return settled
}

// Done is closed once the job has settled.
func (j *Job) Done() <-chan struct{} { return j.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (j *Job) Result() (autolayout.Positions, error) {
	select {
	case <-j.done:
		return j.positions, j.err
	default:
		return nil, errors.New("layout job still running")
	}
}

// Wait blocks until the job settles or ctx ends.
func (j *Job) Wait(ctx context.Context) (autolayout.Positions, error) {
	select {
	case <-j.done:
		return j.positions, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Worker runs at most one background layout at a time. Starting a new run
// terminates the previous one; there is no queue.
type Worker struct {
	compute ComputeFunc
	log     *zap.Logger

	mu      sync.Mutex
	current *Job
	closed  bool

	spawned atomic.Int64
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithCompute replaces the layout function run by the worker.
func WithCompute(fn ComputeFunc) WorkerOption {
	return func(w *Worker) { w.compute = fn }
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(log *zap.Logger) WorkerOption {
	return func(w *Worker) { w.log = log }
}

// NewWorker creates an idle worker.
func NewWorker(opts ...WorkerOption) *Worker {
	w := &Worker{
		compute: autolayout.Run,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Compute starts a background run for req, terminating any run in flight.
// The returned job always settles: with positions for every node of the
// request, or with an error.
func (w *Worker) Compute(ctx context.Context, req Request) *Job {
	payload, err := json.Marshal(req)
	if err != nil {
		w.Terminate()
		job := newJob(len(req.Graph.Nodes), func() {})
		job.settle(nil, fmt.Errorf("encode layout request: %w", err))
		return job
	}

	// The previous run is swapped out under the same lock hold that installs
	// the new one, so concurrent callers never leave two runs live.
	w.mu.Lock()
	prev := w.current
	w.current = nil
	if w.closed {
		w.mu.Unlock()
		w.stop(prev)
		job := newJob(len(req.Graph.Nodes), func() {})
		job.settle(nil, ErrClosed)
		return job
	}

	runCtx, cancel := context.WithCancel(ctx)
	job := newJob(len(req.Graph.Nodes), cancel)
	w.current = job
	w.spawned.Add(1)
	w.mu.Unlock()

	w.stop(prev)
	w.log.Debug("layout worker started",
		zap.String("job", job.ID),
		zap.Int("nodes", job.Nodes),
		zap.String("algorithm", req.Params.Name))

	go w.run(runCtx, job, payload)
	return job
}

func (w *Worker) run(ctx context.Context, job *Job, payload []byte) {
	defer w.release(job)
	defer func() {
		if r := recover(); r != nil {
			job.settle(nil, fmt.Errorf("%w: %v", ErrWorkerCrashed, r))
		}
	}()

	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		job.settle(nil, fmt.Errorf("decode layout request: %w", err))
		return
	}

	pos, err := w.compute(ctx, req.Graph, req.Params)
	if err != nil {
		job.settle(nil, err)
		return
	}

	// The result crosses back as plain data too
	out, err := json.Marshal(response{Positions: pos})
	if err != nil {
		job.settle(nil, fmt.Errorf("%w: %v", ErrMalformedResult, err))
		return
	}
	var resp response
	if err := json.Unmarshal(out, &resp); err != nil {
		job.settle(nil, fmt.Errorf("%w: %v", ErrMalformedResult, err))
		return
	}
	if missing := resp.Positions.Missing(req.Graph); len(missing) > 0 {
		job.settle(nil, fmt.Errorf("%w: %d of %d nodes without position",
			ErrMalformedResult, len(missing), len(req.Graph.Nodes)))
		return
	}

	job.settle(resp.Positions, nil)
}

func (w *Worker) release(job *Job) {
	job.cancel()
	w.mu.Lock()
	if w.current == job {
		w.current = nil
	}
	w.mu.Unlock()
}

// Terminate stops the run in flight, if any. Its job settles with
// ErrTerminated unless it had already settled.
func (w *Worker) Terminate() {
	w.mu.Lock()
	job := w.current
	w.current = nil
	w.mu.Unlock()

	w.stop(job)
}

// stop settles job with ErrTerminated and cancels its context.
func (w *Worker) stop(job *Job) {
	if job == nil {
		return
	}
	if job.settle(nil, ErrTerminated) {
		w.log.Debug("layout worker terminated", zap.String("job", job.ID))
	}
	job.cancel()
}

// Busy reports whether a run is in flight.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current != nil
}

// Spawned returns how many background runs have been started.
func (w *Worker) Spawned() int64 {
	return w.spawned.Load()
}

// Close terminates any run. Later calls to Compute settle immediately with
// ErrClosed. A compute function that ignores its context keeps running
// until it returns, but its result is dropped.
func (w *Worker) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.Terminate()
}
