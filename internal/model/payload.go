package model

import (
	"encoding/json"
	"net/http"
	"strings"
)

// CrawlPayload is the raw capture of one page produced by the crawl backend.
// It is immutable input to the privacy engine: nothing in this repository
// modifies a payload after it has been decoded.
type CrawlPayload struct {
	// InputURL is the URL the backend was asked to load (before redirects).
	InputURL string `json:"input_url"`

	// FinalURL is the URL of the document after all redirects.
	// The page's registrable domain is derived from this URL's host.
	FinalURL string `json:"final_url"`

	// ResponseHeaders are the response headers of the final document.
	ResponseHeaders Headers `json:"response_headers"`

	// Content is the rendered HTML document.
	Content string `json:"content"`

	// Cookies are the cookies present after the page settled, in backend order.
	Cookies []Cookie `json:"cookies"`

	// Requests are the network requests in the order the browser issued them.
	// The first one is always the top-level navigation.
	Requests []Request `json:"requests"`
}

// DecodePayload parses a crawl payload from its JSON representation.
func DecodePayload(data []byte) (*CrawlPayload, error) {
	var p CrawlPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Headers maps header names to values.
// Names are kept exactly as the backend sent them; lookups ignore case.
type Headers map[string]string

// Get returns the value of the named header, matching names case-insensitively.
// An exact (or canonical) match is preferred so lookups stay deterministic
// when the backend sends the same header under two spellings.
func (h Headers) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	if v, ok := h[http.CanonicalHeaderKey(name)]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Has reports whether the named header is present, regardless of case.
func (h Headers) Has(name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// Cookie is a cookie observed by the browser.
// Only Domain and Name are interpreted; all other attributes are opaque.
type Cookie struct {
	// Domain is the cookie's domain attribute, possibly with a leading dot.
	Domain string

	// Name is the cookie name.
	Name string

	// Attributes holds every other member of the backend's cookie object.
	Attributes map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cookie) UnmarshalJSON(data []byte) error {
	attrs, err := decodeWithAttributes(data, map[string]*string{
		"domain": &c.Domain,
		"name":   &c.Name,
	})
	if err != nil {
		return err
	}
	c.Attributes = attrs
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Cookie) MarshalJSON() ([]byte, error) {
	return encodeWithAttributes(c.Attributes, map[string]string{
		"domain": c.Domain,
		"name":   c.Name,
	})
}

// Request is a network request issued while the page loaded.
// Only URL is interpreted; Host is filled in by the request classifier.
type Request struct {
	// URL is the requested URL as the browser issued it.
	URL string

	// Host is the URL's host, annotated during classification.
	// Empty until the request has been classified.
	Host string

	// Attributes holds every other member of the backend's request object.
	Attributes map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Request) UnmarshalJSON(data []byte) error {
	attrs, err := decodeWithAttributes(data, map[string]*string{
		"url":  &r.URL,
		"host": &r.Host,
	})
	if err != nil {
		return err
	}
	r.Attributes = attrs
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	return encodeWithAttributes(r.Attributes, map[string]string{
		"url":  r.URL,
		"host": r.Host,
	}, "host")
}

// WithHost returns a copy of the request annotated with host.
// The attribute map is shared; attributes are never mutated after decoding.
func (r Request) WithHost(host string) Request {
	r.Host = host
	return r
}
