package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/privacyscan/internal/fetch"
	"github.com/nao1215/privacyscan/internal/model"
)

// ErrNoPayload is returned by the analyze step when no fetch step ran before it.
var ErrNoPayload = errors.New("no crawl payload")

// TargetResolver rewrites a target before it is crawled.
// *fetch.Prober implements it.
type TargetResolver interface {
	Resolve(ctx context.Context, target string) (string, error)
}

// HostChecker vets a target host before it is crawled.
// *fetch.DNSChecker implements it.
type HostChecker interface {
	Check(ctx context.Context, host string) error
}

// Fetcher retrieves the crawl payload for a target.
// *fetch.Backend implements it.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*model.CrawlPayload, error)
}

// ReportBuilder turns a payload into a report.
// *privacy.Analyzer implements it.
type ReportBuilder interface {
	Analyze(payload *model.CrawlPayload) (*model.PrivacyReport, error)
}

// ProbeStep prepares the crawl target on the first attempt.
//
// It runs the optional DNS pre-check, then the HTTPS-only probe, and stores
// the result in job.Target. Later attempts reuse that target unchanged.
type ProbeStep struct {
	resolver TargetResolver

	// checker is optional; nil skips the DNS pre-check.
	checker HostChecker

	logger *slog.Logger
}

// ProbeStepOption configures a ProbeStep.
type ProbeStepOption func(*ProbeStep)

// WithHostChecker enables the DNS pre-check.
func WithHostChecker(checker HostChecker) ProbeStepOption {
	return func(s *ProbeStep) {
		s.checker = checker
	}
}

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeStepOption {
	return func(s *ProbeStep) {
		s.logger = logger
	}
}

// NewProbeStep creates a probe step.
func NewProbeStep(resolver TargetResolver, opts ...ProbeStepOption) *ProbeStep {
	s := &ProbeStep{
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Do executes the probe step.
func (s *ProbeStep) Do(ctx context.Context, job *model.Job) error {
	if job.Attempts > 0 && job.Target != "" {
		return nil
	}

	u, err := fetch.ParseTarget(job.URL)
	if err != nil {
		return err
	}

	if s.checker != nil {
		err := s.checker.Check(ctx, u.Hostname())
		switch {
		case errors.Is(err, fetch.ErrDNSUnavailable):
			s.logger.Warn("dns pre-check skipped", "host", u.Hostname(), "error", err)
		case err != nil:
			return err
		}
	}

	target, err := s.resolver.Resolve(ctx, job.URL)
	if err != nil {
		return err
	}
	job.Target = target

	return nil
}

// FetchStep asks the crawl backend for the payload of job.Target.
type FetchStep struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a fetch step.
func NewFetchStep(fetcher Fetcher, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step. Every call counts as one attempt.
func (s *FetchStep) Do(ctx context.Context, job *model.Job) error {
	target := job.Target
	if target == "" {
		target = job.URL
	}

	job.Attempts++
	s.logger.Info("fetching page", "target", target, "attempt", job.Attempts)

	payload, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		return err
	}
	job.Payload = payload

	return nil
}

// AnalyzeStep builds the report from job.Payload and completes the job.
type AnalyzeStep struct {
	builder ReportBuilder
}

// NewAnalyzeStep creates an analyze step.
func NewAnalyzeStep(builder ReportBuilder) *AnalyzeStep {
	return &AnalyzeStep{builder: builder}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analyze step.
func (s *AnalyzeStep) Do(_ context.Context, job *model.Job) error {
	if job.Payload == nil {
		return ErrNoPayload
	}

	report, err := s.builder.Analyze(job.Payload)
	if err != nil {
		return err
	}

	if err := job.Complete(report); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	job.Payload = nil

	return nil
}

// DefaultPipeline creates the standard probe, fetch, analyze pipeline.
// checker may be nil to skip the DNS pre-check.
func DefaultPipeline(resolver TargetResolver, checker HostChecker, fetcher Fetcher, builder ReportBuilder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := New(WithLogger(logger))

	probeOpts := []ProbeStepOption{WithProbeLogger(logger)}
	if checker != nil {
		probeOpts = append(probeOpts, WithHostChecker(checker))
	}

	p.AddSteps(
		NewProbeStep(resolver, probeOpts...),
		NewFetchStep(fetcher, WithFetchLogger(logger)),
		NewAnalyzeStep(builder),
	)

	return p
}
