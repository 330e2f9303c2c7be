package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/privacyscan/internal/fetch"
	"github.com/nao1215/privacyscan/internal/model"
	"github.com/nao1215/privacyscan/internal/privacy"
)

// Runner defaults.
const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 2 * time.Second
	maxBackoff        = 30 * time.Second
)

// JobStore persists jobs. *database.JobStore implements it.
// GetJob returns nil and no error when the job does not exist.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*model.Job, error)
	SaveJob(ctx context.Context, job *model.Job) error
}

// Runner drives one job through the processing -> done | failed state machine.
type Runner struct {
	pipeline *Pipeline

	// store is optional; nil keeps jobs in memory only.
	store JobStore

	// maxRetries is the number of attempts allowed after the first one.
	maxRetries int

	// backoff returns the wait before the given retry (1-based).
	backoff func(retry int) time.Duration

	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStore persists jobs in store.
func WithStore(store JobStore) RunnerOption {
	return func(r *Runner) {
		r.store = store
	}
}

// WithMaxRetries sets the retry budget. Negative values are treated as 0.
func WithMaxRetries(n int) RunnerOption {
	return func(r *Runner) {
		r.maxRetries = max(n, 0)
	}
}

// WithBackoff sets the base backoff. The wait doubles with every retry and
// is capped at 30 seconds. Zero disables waiting.
func WithBackoff(base time.Duration) RunnerOption {
	return func(r *Runner) {
		r.backoff = exponentialBackoff(base)
	}
}

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner executing p for every attempt.
func NewRunner(p *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline:   p,
		maxRetries: DefaultMaxRetries,
		backoff:    exponentialBackoff(DefaultBackoff),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

func exponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(retry int) time.Duration {
		if base <= 0 {
			return 0
		}
		d := base
		for i := 1; i < retry && d < maxBackoff; i++ {
			d *= 2
		}
		return min(d, maxBackoff)
	}
}

// Run analyses target and returns its job.
//
// A stored done job is returned as-is unless force is set. Otherwise the
// job is (re)started and attempts run until the report is built, the
// failure is terminal, or the retry budget is spent. Terminal failures are
// not errors: the job is returned in the failed state with the reason as
// its message.
//
// The returned error is non-nil only for context cancellation and store
// failures.
func (r *Runner) Run(ctx context.Context, target string, force bool) (*model.Job, error) {
	job, err := r.load(ctx, target)
	if err != nil {
		return nil, err
	}

	if job != nil && job.Status == model.JobDone && !force {
		r.logger.Info("using cached report", "url", target, "updated_at", job.UpdatedAt)
		return job, nil
	}

	if job == nil {
		job = model.NewJob(target)
	} else {
		job.Restart()
	}
	if err := r.save(ctx, job); err != nil {
		return job, err
	}

	for {
		err := r.pipeline.Execute(ctx, job)
		if err == nil {
			r.logger.Info("job done", "url", job.URL, "attempts", job.Attempts)
			return job, r.save(ctx, job)
		}

		if ctx.Err() != nil {
			_ = job.Fail(fetch.ReasonCancelled) //nolint:errcheck // job is processing here
			_ = r.save(context.WithoutCancel(ctx), job)
			return job, ctx.Err()
		}

		reason, decision := r.classify(err, job)
		if decision == fetch.DecisionFail {
			r.logger.Warn("job failed", "url", job.URL, "attempts", job.Attempts, "reason", reason)
			if ferr := job.Fail(reason); ferr != nil {
				return job, ferr
			}
			return job, r.save(ctx, job)
		}

		if rerr := job.Retry(); rerr != nil {
			return job, rerr
		}
		if err := r.save(ctx, job); err != nil {
			return job, err
		}

		wait := r.backoff(job.Attempts)
		r.logger.Info("retrying", "url", job.URL, "attempt", job.Attempts, "reason", reason, "backoff", wait)

		select {
		case <-ctx.Done():
			_ = job.Fail(fetch.ReasonCancelled) //nolint:errcheck // job is processing here
			_ = r.save(context.WithoutCancel(ctx), job)
			return job, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// classify maps an attempt error to the job's failure reason and decision.
// A malformed payload cannot improve on retry and always fails the job.
func (r *Runner) classify(err error, job *model.Job) (string, fetch.Decision) {
	if errors.Is(err, privacy.ErrMalformedPayload) {
		var mpe *privacy.MalformedPayloadError
		if errors.As(err, &mpe) {
			return mpe.Error(), fetch.DecisionFail
		}
		return err.Error(), fetch.DecisionFail
	}

	reason := fetch.ReasonOf(err)
	retries := max(job.Attempts-1, 0)
	return reason, fetch.ClassifyFailure(reason, retries, r.maxRetries)
}

func (r *Runner) load(ctx context.Context, target string) (*model.Job, error) {
	if r.store == nil {
		return nil, nil
	}
	job, err := r.store.GetJob(ctx, model.JobID(target))
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return job, nil
}

func (r *Runner) save(ctx context.Context, job *model.Job) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}
