package layout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/codemap/pkg/autolayout"
	"github.com/ha1tch/codemap/pkg/geom"
)

func chain(n int) autolayout.Graph {
	var g autolayout.Graph
	for i := 0; i < n; i++ {
		g.Nodes = append(g.Nodes, autolayout.Node{ID: fmt.Sprintf("n%d", i), Width: 20, Height: 20})
		if i > 0 {
			g.Edges = append(g.Edges, autolayout.Edge{Source: fmt.Sprintf("n%d", i-1), Target: fmt.Sprintf("n%d", i)})
		}
	}
	return g
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// blocking returns a compute function that waits for ctx to end.
func blocking(started chan<- struct{}) ComputeFunc {
	return func(ctx context.Context, g autolayout.Graph, p autolayout.Params) (autolayout.Positions, error) {
		if started != nil {
			started <- struct{}{}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func TestWorkerComputesEveryNode(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	g := chain(12)
	job := w.Compute(context.Background(), Request{Graph: g, Params: autolayout.Params{Name: autolayout.FCoSE, NumIter: 50}})
	assert.NotEmpty(t, job.ID)

	pos, err := job.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Len(t, pos, 12)
	assert.Empty(t, pos.Missing(g))
	assert.EqualValues(t, 1, w.Spawned())
}

func TestWorkerTerminateOnStart(t *testing.T) {
	started := make(chan struct{}, 2)
	w := NewWorker(WithCompute(blocking(started)))
	defer w.Close()

	first := w.Compute(context.Background(), Request{Graph: chain(3)})
	<-started
	second := w.Compute(context.Background(), Request{Graph: chain(3)})

	_, err := first.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrTerminated)

	select {
	case <-second.Done():
		t.Fatal("second job settled early")
	default:
	}
	assert.True(t, w.Busy())

	w.Terminate()
	_, err = second.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrTerminated)
	assert.EqualValues(t, 2, w.Spawned())
}

func TestWorkerConcurrentComputeLeavesOneRun(t *testing.T) {
	for round := 0; round < 5; round++ {
		w := NewWorker(WithCompute(blocking(nil)))

		const callers = 64
		jobs := make([]*Job, callers)
		var wg sync.WaitGroup
		for i := range jobs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				jobs[i] = w.Compute(context.Background(), Request{Graph: chain(2)})
			}(i)
		}
		wg.Wait()

		live := 0
		for _, job := range jobs {
			select {
			case <-job.Done():
				_, err := job.Result()
				assert.ErrorIs(t, err, ErrTerminated)
			default:
				live++
			}
		}
		assert.Equal(t, 1, live, "round %d", round)
		assert.EqualValues(t, callers, w.Spawned())

		w.Close()
		for _, job := range jobs {
			_, err := job.Wait(waitCtx(t))
			assert.ErrorIs(t, err, ErrTerminated)
		}
	}
}

func TestWorkerCrash(t *testing.T) {
	w := NewWorker(WithCompute(func(context.Context, autolayout.Graph, autolayout.Params) (autolayout.Positions, error) {
		panic("boom")
	}))
	defer w.Close()

	_, err := w.Compute(context.Background(), Request{Graph: chain(2)}).Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrWorkerCrashed)
}

func TestWorkerIncompleteResult(t *testing.T) {
	w := NewWorker(WithCompute(func(context.Context, autolayout.Graph, autolayout.Params) (autolayout.Positions, error) {
		return autolayout.Positions{"n0": geom.Point{X: 1, Y: 1}}, nil
	}))
	defer w.Close()

	_, err := w.Compute(context.Background(), Request{Graph: chain(3)}).Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestWorkerRequestIsACopy(t *testing.T) {
	seen := make(chan autolayout.Graph, 1)
	w := NewWorker(WithCompute(func(_ context.Context, g autolayout.Graph, p autolayout.Params) (autolayout.Positions, error) {
		seen <- g
		return autolayout.Run(context.Background(), g, p)
	}))
	defer w.Close()

	g := chain(2)
	job := w.Compute(context.Background(), Request{Graph: g, Params: autolayout.Params{Name: autolayout.Grid}})
	g.Nodes[0].ID = "mutated"

	got := <-seen
	assert.Equal(t, "n0", got.Nodes[0].ID)
	_, err := job.Wait(waitCtx(t))
	require.NoError(t, err)
}

func TestWorkerClose(t *testing.T) {
	started := make(chan struct{}, 1)
	w := NewWorker(WithCompute(blocking(started)))

	job := w.Compute(context.Background(), Request{Graph: chain(2)})
	<-started
	w.Close()

	_, err := job.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrTerminated)

	_, err = w.Compute(context.Background(), Request{Graph: chain(2)}).Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrClosed)
	assert.EqualValues(t, 1, w.Spawned())
}

func TestWorkerContextDeadline(t *testing.T) {
	w := NewWorker(WithCompute(blocking(nil)))
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := w.Compute(ctx, Request{Graph: chain(2)}).Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
