package privacy

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/privacyscan/internal/domain"
	"github.com/nao1215/privacyscan/internal/model"
)

// Analyzer assembles privacy reports from crawl payloads.
// An Analyzer holds only read-only configuration and is safe for concurrent use.
type Analyzer struct {
	// policies rates the effective referrer policy.
	policies PolicyTable

	// now stamps AnalyzedAt. Injected so reports are reproducible in tests.
	now func() time.Time

	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPolicyTable sets the referrer policy rating table.
func WithPolicyTable(table PolicyTable) Option {
	return func(a *Analyzer) {
		if table != nil {
			a.policies = table
		}
	}
}

// WithClock sets the clock used for AnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer with the default policy table.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		policies: DefaultPolicyTable(),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the privacy report for one payload.
//
// The registrable domain is derived once from the final URL and shared by
// every classifier. Cookie, request and referrer classification are
// independent of each other.
//
// A payload whose final URL has no scheme or no host cannot be analysed and
// yields a *MalformedPayloadError.
func (a *Analyzer) Analyze(payload *model.CrawlPayload) (*model.PrivacyReport, error) {
	if payload == nil {
		return nil, &MalformedPayloadError{Reason: "no payload"}
	}

	final, err := parseFinalURL(payload.FinalURL)
	if err != nil {
		return nil, err
	}
	registrable := domain.Registrable(final.Hostname())

	cookies := ClassifyCookies(payload.Cookies, registrable)
	requests := ClassifyRequests(payload.Requests, registrable)

	meta := MetaReferrer(payload.Content)
	csp := CSPReferrerFromHeaders(payload.ResponseHeaders)
	header := HeaderReferrer(payload.ResponseHeaders)

	headers := payload.ResponseHeaders
	if headers == nil {
		headers = model.Headers{}
	}

	report := &model.PrivacyReport{
		InputURL:          payload.InputURL,
		FinalURL:          payload.FinalURL,
		Scheme:            strings.ToLower(final.Scheme),
		RegistrableDomain: registrable,

		Cookies:                 cookies,
		CookieCount:             CountCookies(cookies),
		ThirdPartyCookieDomains: ThirdPartyCookieDomains(cookies),

		ThirdPartyRequests:         requests.ThirdParty,
		InsecureFirstPartyRequests: requests.InsecureFirstParty,
		ThirdPartyRequestTypes:     RequestTypeCounts(requests.ThirdParty),
		ThirdPartyRequestCount:     RequestCounts(requests.ThirdParty),
		InsecureRequestsCount:      InsecureRequestsCount(requests),

		MetaReferrer:   meta,
		CSPReferrer:    csp,
		ReferrerHeader: header,
		ReferrerPolicy: a.policies.Evaluate(meta, csp, header),

		HSTS:       HSTSFromHeaders(payload.ResponseHeaders),
		Headers:    headers,
		AnalyzedAt: a.now(),
	}

	a.logger.Debug("payload analyzed",
		"final_url", payload.FinalURL,
		"registrable_domain", registrable,
		"cookies", report.TotalCookies(),
		"third_party_requests", report.ThirdPartyRequestCount.Total,
		"referrer_rating", report.ReferrerPolicy.Rating,
	)

	return report, nil
}

func parseFinalURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &MalformedPayloadError{FinalURL: raw, Reason: "empty"}
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &MalformedPayloadError{FinalURL: raw, Reason: "unparseable", Err: err}
	}
	if u.Scheme == "" {
		return nil, &MalformedPayloadError{FinalURL: raw, Reason: "no scheme"}
	}
	if u.Hostname() == "" {
		return nil, &MalformedPayloadError{FinalURL: raw, Reason: "no host"}
	}
	return u, nil
}
