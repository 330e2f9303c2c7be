package model

import "time"

// PrivacyReport is the classified result of analysing one crawl payload.
// It is created fresh per analysis run and never modified after assembly.
//
// Design decision: We keep one flat struct, like the payload, rather than nesting
// per-classifier results. The JSON shape is consumed directly by view layers and
// a flat document is easier to query.
type PrivacyReport struct {
	// InputURL is the URL the crawl was started with.
	InputURL string `json:"input_url"`

	// FinalURL is the URL of the analysed document after redirects.
	FinalURL string `json:"final_url"`

	// Scheme is the scheme of FinalURL ("http" or "https").
	Scheme string `json:"scheme"`

	// RegistrableDomain is the page's eTLD+1 (or host fallback) used for
	// every first/third-party decision in this report.
	RegistrableDomain string `json:"registrable_domain"`

	// === Cookies ===

	// Cookies holds the cookies partitioned by party.
	Cookies CookieBuckets `json:"cookies"`

	// CookieCount is the size of each cookie bucket.
	CookieCount PartyCount `json:"cookie_count"`

	// ThirdPartyCookieDomains is the number of distinct registrable domains
	// among third-party cookies.
	ThirdPartyCookieDomains int `json:"third_party_cookie_domains"`

	// === Requests ===

	// ThirdPartyRequests are requests to hosts outside RegistrableDomain.
	ThirdPartyRequests []Request `json:"third_party_requests"`

	// InsecureFirstPartyRequests are plain HTTP requests to RegistrableDomain,
	// excluding the top-level navigation.
	InsecureFirstPartyRequests []Request `json:"insecure_first_party_requests"`

	// ThirdPartyRequestTypes splits ThirdPartyRequests by transport.
	ThirdPartyRequestTypes RequestTypeCount `json:"third_party_request_types"`

	// ThirdPartyRequestCount summarises ThirdPartyRequests.
	ThirdPartyRequestCount RequestCount `json:"third_party_request_count"`

	// InsecureRequestsCount is insecure third-party requests plus
	// insecure first-party requests.
	InsecureRequestsCount int `json:"insecure_requests_count"`

	// === Referrer policy ===

	// MetaReferrer is the content of <meta name="referrer">, if any.
	MetaReferrer *string `json:"meta_referrer"`

	// CSPReferrer is the referrer directive of Content-Security-Policy, if any.
	CSPReferrer *string `json:"csp_referrer"`

	// ReferrerHeader is the Referrer-Policy header, if any.
	ReferrerHeader *string `json:"referrer_header"`

	// ReferrerPolicy is the effective policy after precedence and its rating.
	ReferrerPolicy ReferrerPolicy `json:"referrer_policy"`

	// === Transport ===

	// HSTS describes the Strict-Transport-Security header.
	HSTS HSTS `json:"hsts"`

	// Headers are the raw response headers, passed through unchanged.
	Headers Headers `json:"headers"`

	// AnalyzedAt is when the report was assembled.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// CookieBuckets partitions cookies into first and third party.
// Every input cookie appears in exactly one bucket, in input order.
type CookieBuckets struct {
	FirstParty []Cookie `json:"first_party"`
	ThirdParty []Cookie `json:"third_party"`
}

// RequestBuckets holds the two request classifications.
// A request appears in at most one of them.
type RequestBuckets struct {
	ThirdParty         []Request `json:"third_party"`
	InsecureFirstParty []Request `json:"insecure_first_party"`
}

// PartyCount counts items by party.
type PartyCount struct {
	FirstParty int `json:"first_party"`
	ThirdParty int `json:"third_party"`
}

// RequestTypeCount counts requests by transport.
type RequestTypeCount struct {
	Secure   int `json:"secure"`
	Insecure int `json:"insecure"`
}

// RequestCount summarises a request list.
type RequestCount struct {
	Total       int `json:"total"`
	UniqueHosts int `json:"unique_hosts"`
}

// ReferrerPolicy is the effective referrer policy of a page.
type ReferrerPolicy struct {
	// Source is where Value came from.
	Source ReferrerSource `json:"source"`

	// Value is the effective policy token, empty when Source is none.
	Value string `json:"value,omitempty"`

	// Rating is the verdict for Value.
	Rating Rating `json:"rating"`
}

// HSTS describes a Strict-Transport-Security header.
type HSTS struct {
	// Present is true if the header was sent.
	Present bool `json:"present"`

	// Value is the raw header value.
	Value string `json:"value,omitempty"`

	// MaxAge is the max-age directive in seconds, 0 when absent or invalid.
	MaxAge int64 `json:"max_age"`

	// IncludeSubdomains is true when the includeSubDomains directive is set.
	IncludeSubdomains bool `json:"include_subdomains"`

	// Preload is true when the preload directive is set.
	Preload bool `json:"preload"`
}

// Secure reports whether the final document was served over HTTPS.
func (r *PrivacyReport) Secure() bool {
	return r.Scheme == "https"
}

// TotalCookies returns the number of cookies in both buckets.
func (r *PrivacyReport) TotalCookies() int {
	return r.CookieCount.FirstParty + r.CookieCount.ThirdParty
}
