package privacy

import (
	"net/url"
	"strings"

	"github.com/nao1215/privacyscan/internal/domain"
	"github.com/nao1215/privacyscan/internal/model"
)

// ClassifyRequests splits requests into third-party requests and insecure
// first-party requests. Both lists keep input order and every request in
// them is annotated with its host.
//
// Requests whose URL has no parseable host are left out of both lists and
// therefore out of every count derived from them.
func ClassifyRequests(requests []model.Request, registrable string) model.RequestBuckets {
	buckets := model.RequestBuckets{
		ThirdParty:         make([]model.Request, 0),
		InsecureFirstParty: make([]model.Request, 0),
	}

	for _, r := range requests {
		u, err := url.Parse(strings.TrimSpace(r.URL))
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := u.Hostname()

		if domain.Registrable(host) != registrable {
			buckets.ThirdParty = append(buckets.ThirdParty, r.WithHost(host))
			continue
		}
		if strings.EqualFold(u.Scheme, "http") {
			buckets.InsecureFirstParty = append(buckets.InsecureFirstParty, r.WithHost(host))
		}
	}

	buckets.InsecureFirstParty = dropNavigationArtifact(buckets.InsecureFirstParty)

	return buckets
}

// dropNavigationArtifact removes the first insecure first-party request.
//
// The crawl backend always records the top-level navigation as the first
// request, and it is always issued over plain HTTP regardless of where the
// site ends up. Counting it would flag every site as loading insecure
// first-party content, so the first element is dropped unconditionally.
// An empty list stays empty.
func dropNavigationArtifact(insecure []model.Request) []model.Request {
	if len(insecure) == 0 {
		return insecure
	}
	return insecure[1:]
}

// RequestTypeCounts counts requests by transport.
// A request is secure when its URL starts with "https".
func RequestTypeCounts(requests []model.Request) model.RequestTypeCount {
	var counts model.RequestTypeCount
	for _, r := range requests {
		if strings.HasPrefix(r.URL, "https") {
			counts.Secure++
		} else {
			counts.Insecure++
		}
	}
	return counts
}

// RequestCounts returns the total and the number of distinct annotated hosts.
func RequestCounts(requests []model.Request) model.RequestCount {
	hosts := make(map[string]struct{}, len(requests))
	for _, r := range requests {
		hosts[r.Host] = struct{}{}
	}
	return model.RequestCount{
		Total:       len(requests),
		UniqueHosts: len(hosts),
	}
}

// InsecureRequestsCount is the number of insecure third-party requests plus
// the number of insecure first-party requests.
func InsecureRequestsCount(buckets model.RequestBuckets) int {
	return RequestTypeCounts(buckets.ThirdParty).Insecure + len(buckets.InsecureFirstParty)
}
