package privacy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/privacyscan/internal/model"
)

// Header names consulted by the referrer policy resolver.
const (
	headerReferrerPolicy = "Referrer-Policy"
	headerCSP            = "Content-Security-Policy"
	cspReferrerDirective = "referrer"
)

// MetaReferrer returns the content of the first <meta name="referrer">
// element in html. The name is matched case-insensitively. A missing element
// or an empty content attribute yields nil.
func MetaReferrer(html string) *string {
	if strings.TrimSpace(html) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var result *string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "referrer") {
			return true
		}
		content, _ := s.Attr("content")
		result = nonEmpty(content)
		return false
	})

	return result
}

// CSPReferrer returns the value of the referrer directive of a
// Content-Security-Policy header value, or nil when there is none.
func CSPReferrer(csp string) *string {
	for _, directive := range strings.Split(csp, ";") {
		fields := strings.Fields(directive)
		if len(fields) == 0 || !strings.EqualFold(fields[0], cspReferrerDirective) {
			continue
		}
		value := strings.Join(fields[1:], " ")
		return nonEmpty(strings.Trim(value, `'"`))
	}
	return nil
}

// HeaderReferrer returns the Referrer-Policy header, or nil when absent or empty.
func HeaderReferrer(headers model.Headers) *string {
	return nonEmpty(headers.Get(headerReferrerPolicy))
}

// CSPReferrerFromHeaders extracts the CSP referrer directive from response headers.
func CSPReferrerFromHeaders(headers model.Headers) *string {
	return CSPReferrer(headers.Get(headerCSP))
}

// Signal is the referrer policy that wins precedence, before rating.
type Signal struct {
	// Source is where Value came from.
	Source model.ReferrerSource

	// Value is the raw policy value, empty when Source is none.
	Value string
}

// Present reports whether any source carried a policy.
func (s Signal) Present() bool {
	return s.Source != model.ReferrerSourceNone
}

// Resolve picks the effective signal: meta tag over CSP directive over
// Referrer-Policy header.
func Resolve(meta, csp, header *string) Signal {
	switch {
	case meta != nil:
		return Signal{Source: model.ReferrerSourceMeta, Value: *meta}
	case csp != nil:
		return Signal{Source: model.ReferrerSourceCSP, Value: *csp}
	case header != nil:
		return Signal{Source: model.ReferrerSourceHeader, Value: *header}
	default:
		return Signal{Source: model.ReferrerSourceNone}
	}
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
