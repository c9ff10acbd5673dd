package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sgr-genai/orchestrator/internal/pool"
	"github.com/sgr-genai/orchestrator/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	result string
	err    error
	panics bool
}

func (f *fakeRunner) Run(ctx context.Context, workflowID, initialInput string) (string, error) {
	if f.panics {
		panic("simulated engine panic")
	}
	return f.result, f.err
}

func newTestPool() *pool.GoroutinePool {
	return pool.NewGoroutinePool(pool.GoroutinePoolConfig{MaxWorkers: 4, QueueSize: 16, IdleTimeout: time.Second})
}

func TestDispatcher_Submit_CompletesSuccessfully(t *testing.T) {
	jobs := job.NewManager()
	d := New(newTestPool(), jobs, &fakeRunner{result: "final answer"}, nil, nil)

	jobID, err := d.Submit("wf-1", "hello")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec := d.Get(jobID)
		return rec.Status == job.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	rec := d.Get(jobID)
	assert.Equal(t, "final answer", rec.Result)
}

func TestDispatcher_Submit_FailureWritesFailedResultWithPrefix(t *testing.T) {
	jobs := job.NewManager()
	d := New(newTestPool(), jobs, &fakeRunner{err: errors.New("model not found")}, nil, nil)

	jobID, err := d.Submit("wf-1", "hello")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec := d.Get(jobID)
		return rec.Status == job.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	rec := d.Get(jobID)
	assert.Equal(t, "Processing failed: model not found", rec.Result)
}

func TestDispatcher_Submit_PanicNeverEscapesAsUnhandledFailure(t *testing.T) {
	jobs := job.NewManager()
	d := New(newTestPool(), jobs, &fakeRunner{panics: true}, nil, nil)

	jobID, err := d.Submit("wf-1", "hello")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec := d.Get(jobID)
		return rec.Status == job.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	rec := d.Get(jobID)
	assert.Contains(t, rec.Result, "Processing failed: panic:")
}

func TestDispatcher_Get_UnknownJobReturnsSyntheticFailed(t *testing.T) {
	jobs := job.NewManager()
	d := New(newTestPool(), jobs, &fakeRunner{}, nil, nil)

	rec := d.Get("no-such-job")
	assert.Equal(t, job.StatusFailed, rec.Status)
}
