package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/privacyscan/internal/model"
	"golang.org/x/time/rate"
)

// TargetParam is the query parameter carrying the URL to crawl.
const TargetParam = "fetch_url"

// defaultMaxBodySize limits backend replies. Payloads embed the full
// rendered document, so the limit is generous.
const defaultMaxBodySize = 32 * 1024 * 1024

// maxReasonSize limits how much of an error body becomes a failure reason.
const maxReasonSize = 512

// Backend is the client of the external crawl backend.
//
// The backend loads a URL in a headless browser and answers 200 with a
// model.CrawlPayload, or a non-200 status with {"reason": "..."}.
type Backend struct {
	// endpoint is the backend URL; the target is added as TargetParam.
	endpoint *url.URL

	client *http.Client

	// limiter paces requests. Shared by every goroutine using this Backend.
	limiter *rate.Limiter

	maxBodySize int64

	logger *slog.Logger
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithHTTPClient sets the HTTP client, for example one from Dialer.NewHTTPClient.
func WithHTTPClient(client *http.Client) BackendOption {
	return func(b *Backend) {
		if client != nil {
			b.client = client
		}
	}
}

// WithRateLimit paces requests to perSecond with the given burst.
// A non-positive perSecond disables pacing.
func WithRateLimit(perSecond float64, burst int) BackendOption {
	return func(b *Backend) {
		if perSecond <= 0 {
			b.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBackendMaxBodySize limits the size of backend replies.
func WithBackendMaxBodySize(size int64) BackendOption {
	return func(b *Backend) {
		if size > 0 {
			b.maxBodySize = size
		}
	}
}

// WithBackendLogger sets the logger.
func WithBackendLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBackend creates a client for the backend at endpoint.
func NewBackend(endpoint string, opts ...BackendOption) (*Backend, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackend, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, endpoint)
	}

	b := &Backend{
		endpoint:    u,
		client:      http.DefaultClient,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Endpoint returns the backend URL.
func (b *Backend) Endpoint() string {
	return b.endpoint.String()
}

// Fetch asks the backend to crawl target and decodes the payload.
//
// Every failure the job should record is a *FetchFailure. Context
// cancellation is returned as the context's error.
func (b *Backend) Fetch(ctx context.Context, target string) (*model.CrawlPayload, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.requestURL(target), nil)
	if err != nil {
		return nil, &FetchFailure{Reason: ReasonInvalidURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// the target is not at fault when the backend itself is unreachable
		return nil, &FetchFailure{Reason: ReasonBackendUnavailable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, b.maxBodySize))
	if err != nil {
		return nil, &FetchFailure{Reason: ReasonBackendUnavailable, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		reason := failureReason(resp.StatusCode, body)
		b.logger.Debug("backend reported failure", "target", target, "status", resp.StatusCode, "reason", reason)
		return nil, &FetchFailure{Reason: reason, StatusCode: resp.StatusCode}
	}

	payload, err := model.DecodePayload(body)
	if err != nil {
		return nil, &FetchFailure{Reason: ReasonMalformedReply, StatusCode: resp.StatusCode, Err: err}
	}

	return payload, nil
}

func (b *Backend) requestURL(target string) string {
	u := *b.endpoint
	q := u.Query()
	q.Set(TargetParam, target)
	u.RawQuery = q.Encode()
	return u.String()
}

// failureReason extracts the reason from an error reply: the JSON reason
// member when present, else the trimmed body, else the status text.
func failureReason(status int, body []byte) string {
	var reply struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &reply); err == nil && strings.TrimSpace(reply.Reason) != "" {
		return strings.TrimSpace(reply.Reason)
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxReasonSize {
		text = text[:maxReasonSize]
	}
	if text != "" {
		return text
	}
	return strings.ToLower(http.StatusText(status))
}
