// Package dispatch runs workflows asynchronously: Submit returns a job id
// immediately and the actual run happens on a pooled worker goroutine.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/sgr-genai/orchestrator/internal/metrics"
	"github.com/sgr-genai/orchestrator/internal/pool"
	"github.com/sgr-genai/orchestrator/job"
	"go.uber.org/zap"
)

// Runner is the subset of the Workflow Engine the dispatcher depends on.
type Runner interface {
	Run(ctx context.Context, workflowID, initialInput string) (string, error)
}

// Dispatcher submits workflow runs onto a bounded goroutine pool and
// records their outcome in the Job Manager.
type Dispatcher struct {
	pool    *pool.GoroutinePool
	jobs    *job.Manager
	engine  Runner
	metrics *metrics.Collector
	logger  *zap.Logger
}

func New(p *pool.GoroutinePool, jobs *job.Manager, engine Runner, collector *metrics.Collector, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{pool: p, jobs: jobs, engine: engine, metrics: collector, logger: logger}
}

// Submit creates a PENDING job for workflowID and enqueues its execution,
// returning the job id immediately regardless of whether the pool has a
// free worker right now.
func (d *Dispatcher) Submit(workflowID, initialInput string) (string, error) {
	jobID := d.jobs.Create(workflowID)

	err := d.pool.Submit(context.Background(), func(ctx context.Context) error {
		return d.run(ctx, jobID, workflowID, initialInput)
	})
	if err != nil {
		_ = d.jobs.Update(jobID, job.StatusFailed, "Processing failed: "+err.Error())
		return jobID, err
	}
	return jobID, nil
}

// run is the pool task body. It recovers its own panics so a bad workflow
// run always lands as a FAILED job with a result message, rather than
// leaving the job stuck at PROCESSING while the pool's own recover only
// prevents the worker goroutine from dying.
func (d *Dispatcher) run(ctx context.Context, jobID, workflowID, initialInput string) (runErr error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("workflow run panicked", zap.String("jobId", jobID), zap.Any("panic", r))
			if updateErr := d.jobs.Update(jobID, job.StatusFailed, fmt.Sprintf("Processing failed: panic: %v", r)); updateErr != nil {
				d.logger.Error("failed to mark job failed after panic", zap.String("jobId", jobID), zap.Error(updateErr))
			}
			if d.metrics != nil {
				d.metrics.RecordJob(workflowID, "failed", time.Since(start))
			}
			runErr = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := d.jobs.Update(jobID, job.StatusProcessing, "Workflow started."); err != nil {
		d.logger.Error("failed to mark job processing", zap.String("jobId", jobID), zap.Error(err))
	}

	result, err := d.engine.Run(ctx, workflowID, initialInput)
	if err != nil {
		d.logger.Warn("workflow run failed", zap.String("jobId", jobID), zap.String("workflowId", workflowID), zap.Error(err))
		if updateErr := d.jobs.Update(jobID, job.StatusFailed, "Processing failed: "+err.Error()); updateErr != nil {
			d.logger.Error("failed to mark job failed", zap.String("jobId", jobID), zap.Error(updateErr))
		}
		if d.metrics != nil {
			d.metrics.RecordJob(workflowID, "failed", time.Since(start))
		}
		return err
	}

	if err := d.jobs.Update(jobID, job.StatusCompleted, result); err != nil {
		d.logger.Error("failed to mark job completed", zap.String("jobId", jobID), zap.Error(err))
	}
	if d.metrics != nil {
		d.metrics.RecordJob(workflowID, "completed", time.Since(start))
	}
	return nil
}

// Get returns the current state of jobID.
func (d *Dispatcher) Get(jobID string) job.Record {
	return d.jobs.Get(jobID)
}
