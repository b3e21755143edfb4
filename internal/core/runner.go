package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is the fallback claim cadence when no submission
// wake-up arrives, and the only cadence for rows requeued or left over
// from an earlier process life.
const DefaultPollInterval = 2 * time.Second

// Runner executes queued jobs with a bounded worker pool. Workers claim
// rows from the store, so several processes can share one queue.
type Runner struct {
	svc     *Service
	workers int
	poll    time.Duration
}

// NewRunner creates a Runner over the service's job queue.
func NewRunner(svc *Service, workers int, poll time.Duration) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Runner{svc: svc, workers: workers, poll: poll}
}

// Start runs the worker pool until ctx is cancelled. Jobs already
// executing finish before Start returns.
func (r *Runner) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		worker := i
		g.Go(func() error {
			return r.workerLoop(ctx, worker)
		})
	}
	return g.Wait()
}

func (r *Runner) workerLoop(ctx context.Context, worker int) error {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		// Drain the queue before sleeping.
		for {
			row, err := r.svc.store.ClaimNextQueued(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("claim next job", "worker", worker, "error", err)
				break
			}
			if row == nil {
				break
			}
			r.execute(row)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-r.svc.wake:
		case <-ticker.C:
		}
	}
}

// execute runs one claimed job through its operation and finalizes it.
func (r *Runner) execute(row *Job) {
	svc := r.svc
	aj := svc.adopt(row)
	start := time.Now()

	log := slog.With("job_id", row.ID, "operation", row.Operation)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in job", "panic", rec)
			msg := fmt.Sprintf("internal error: %v", rec)
			if err := svc.store.MarkFailed(context.Background(), row.ID, msg); err != nil {
				log.Error("persist job failure", "error", err)
			}
			svc.finishJob(aj, JobResult{
				JobID:      row.ID,
				Operation:  row.Operation,
				Status:     StatusFailed,
				Error:      msg,
				DurationMs: time.Since(start).Milliseconds(),
			})
		}
	}()

	def, ok := Get(row.Operation)
	if !ok {
		// The row predates a registry change; nothing can run it.
		r.fail(aj, row, start, fmt.Errorf("unknown operation: %s", row.Operation))
		return
	}

	ctx := aj.RunCtx
	if err := ctx.Err(); err != nil {
		r.fail(aj, row, start, err)
		return
	}

	paths, names, err := svc.resolveInputs(row.Inputs)
	if err != nil {
		r.fail(aj, row, start, err)
		return
	}

	aj.setStep(StatusRunning, "starting", 0, 0)
	log.Info("job started", "inputs", len(paths))

	res, err := def.Run(ctx, RunEnv{
		JobID:         row.ID,
		InputPaths:    paths,
		InputNames:    names,
		Params:        row.Params,
		ArtifactsDir:  svc.artifactsDir,
		MaxResultRows: svc.maxResultRows,
		Progress:      r.progressSink(aj),
	})
	if err != nil {
		r.fail(aj, row, start, err)
		return
	}

	if err := svc.store.MarkSucceeded(context.Background(), row.ID, res.OutputPath, res.OutputName); err != nil {
		log.Error("persist job success", "error", err)
	}

	log.Info("job succeeded", "output", res.OutputName, "duration_ms", time.Since(start).Milliseconds())

	svc.finishJob(aj, JobResult{
		JobID:      row.ID,
		Operation:  row.Operation,
		Status:     StatusSucceeded,
		OutputName: res.OutputName,
		OutputPath: res.OutputPath,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// fail finalizes a job that did not succeed. Cancellation is recorded as
// cancelled, everything else as failed.
func (r *Runner) fail(aj *activeJob, row *Job, start time.Time, err error) {
	res := JobResult{
		JobID:      row.ID,
		Operation:  row.Operation,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if errors.Is(err, context.Canceled) {
		res.Status = StatusCancelled
		res.Error = "job cancelled"
		if err := r.svc.store.MarkCancelled(context.Background(), row.ID); err != nil {
			slog.Error("persist job cancellation", "job_id", row.ID, "error", err)
		}
		slog.Info("job cancelled", "job_id", row.ID, "operation", row.Operation)
	} else {
		res.Status = StatusFailed
		res.Error = err.Error()
		if err := r.svc.store.MarkFailed(context.Background(), row.ID, res.Error); err != nil {
			slog.Error("persist job failure", "job_id", row.ID, "error", err)
		}
		slog.Error("job failed", "job_id", row.ID, "operation", row.Operation, "error", err)
	}

	r.svc.finishJob(aj, res)
}

// progressSink fans step updates out to subscribers and persists them at
// whole-percent granularity so the store is not hammered per row.
func (r *Runner) progressSink(aj *activeJob) ProgressFunc {
	lastPct := -1
	lastStep := ""
	return func(step string, done, total int) {
		p := aj.setStep(StatusRunning, step, done, total)

		pct := int(p.Percent())
		if pct == lastPct && step == lastStep {
			return
		}
		lastPct, lastStep = pct, step

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.svc.store.UpdateProgress(ctx, aj.ID, pct, step); err != nil {
			slog.Debug("persist job progress", "job_id", aj.ID, "error", err)
		}
	}
}
