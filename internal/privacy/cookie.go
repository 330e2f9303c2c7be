package privacy

import (
	"strings"

	"github.com/nao1215/privacyscan/internal/domain"
	"github.com/nao1215/privacyscan/internal/model"
)

// ClassifyCookies partitions cookies into first and third party relative to
// the page's registrable domain.
//
// A cookie is judged by its own domain attribute, not by the request that set
// it. Every cookie lands in exactly one bucket and input order is preserved
// inside each bucket.
func ClassifyCookies(cookies []model.Cookie, registrable string) model.CookieBuckets {
	buckets := model.CookieBuckets{
		FirstParty: make([]model.Cookie, 0, len(cookies)),
		ThirdParty: make([]model.Cookie, 0),
	}

	for _, c := range cookies {
		if domain.Registrable(CookieDomain(c)) == registrable {
			buckets.FirstParty = append(buckets.FirstParty, c)
		} else {
			buckets.ThirdParty = append(buckets.ThirdParty, c)
		}
	}

	return buckets
}

// CookieDomain returns the cookie's domain with a single leading dot removed.
func CookieDomain(c model.Cookie) string {
	return strings.TrimPrefix(c.Domain, ".")
}

// CountCookies returns the size of each bucket.
func CountCookies(buckets model.CookieBuckets) model.PartyCount {
	return model.PartyCount{
		FirstParty: len(buckets.FirstParty),
		ThirdParty: len(buckets.ThirdParty),
	}
}

// ThirdPartyCookieDomains counts the distinct registrable domains that set
// third-party cookies.
func ThirdPartyCookieDomains(buckets model.CookieBuckets) int {
	seen := make(map[string]struct{}, len(buckets.ThirdParty))
	for _, c := range buckets.ThirdParty {
		seen[domain.Registrable(CookieDomain(c))] = struct{}{}
	}
	return len(seen)
}
