package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/privacyscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// JobRunner runs a single job. *Runner implements it.
type JobRunner interface {
	Run(ctx context.Context, target string, force bool) (*model.Job, error)
}

// BatchProcessor handles concurrent processing of multiple targets.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Runner because:
// 1. It keeps the Runner focused on one job's state machine
// 2. Backend pacing stays in one shared rate limiter instead of per batch
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	runner JobRunner

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	// force bypasses cached done jobs.
	force bool

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithForce makes every job bypass its cached report.
func WithForce(force bool) BatchOption {
	return func(b *BatchProcessor) {
		b.force = force
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(runner JobRunner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs jobs for multiple targets concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
//
// The returned slice is in target order. A job whose runner returned an
// error is reported as failed with that error as its message, so one bad
// target never hides the others. The error return is only set when the
// batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.Job, error) {
	bp.logger.Info("starting batch processing",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// each goroutine writes only its own index
	results := make([]*model.Job, len(targets))

	err := bp.run(ctx, targets, func(job *model.Job, index int) {
		results[index] = job
	})

	bp.logger.Info("batch processing complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback runs jobs for multiple targets and calls callback
// for each finished job, with the index of its target. The callback is called
// from worker goroutines and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(job *model.Job, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	return bp.run(ctx, targets, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, targets []string, done func(*model.Job, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("running job",
				"url", target,
				"index", i+1,
				"total", len(targets),
			)

			job, err := bp.runner.Run(ctx, target, bp.force)
			if err != nil {
				bp.logger.Warn("job error", "url", target, "error", err)
				if job == nil {
					job = model.NewJob(target)
				}
				if !job.IsTerminal() {
					_ = job.Fail(err.Error()) //nolint:errcheck // checked IsTerminal above
				}
			}

			done(job, i)

			// the error is recorded on the job; other targets continue
			return nil
		})
	}

	return g.Wait()
}
