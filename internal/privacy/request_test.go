package privacy

import (
	"fmt"
	"testing"

	"github.com/nao1215/privacyscan/internal/model"
)

func requests(urls ...string) []model.Request {
	out := make([]model.Request, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.Request{URL: u})
	}
	return out
}

func urlsOf(reqs []model.Request) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.URL)
	}
	return out
}

// TestClassifyRequests tests third-party and insecure first-party partitioning.
func TestClassifyRequests(t *testing.T) {
	t.Parallel()

	reqs := requests(
		"http://example.com/",
		"https://www.example.com/app.js",
		"http://static.example.com/logo.png",
		"https://cdn.tracker.net/t.js",
		"http://pixel.ads.org/p.gif",
		"data:image/gif;base64,R0lGOD",
		"http://example.com/style.css",
	)

	b := ClassifyRequests(reqs, "example.com")

	t.Run("third party in order with host", func(t *testing.T) {
		t.Parallel()
		if got := fmt.Sprint(urlsOf(b.ThirdParty)); got != "[https://cdn.tracker.net/t.js http://pixel.ads.org/p.gif]" {
			t.Errorf("got %s", got)
		}
		if b.ThirdParty[0].Host != "cdn.tracker.net" || b.ThirdParty[1].Host != "pixel.ads.org" {
			t.Errorf("hosts not annotated: %+v", b.ThirdParty)
		}
	})

	t.Run("insecure first party drops navigation", func(t *testing.T) {
		t.Parallel()
		if got := fmt.Sprint(urlsOf(b.InsecureFirstParty)); got != "[http://static.example.com/logo.png http://example.com/style.css]" {
			t.Errorf("got %s", got)
		}
		if b.InsecureFirstParty[0].Host != "static.example.com" {
			t.Errorf("host not annotated: %+v", b.InsecureFirstParty[0])
		}
	})

	t.Run("input is not modified", func(t *testing.T) {
		t.Parallel()
		for _, r := range reqs {
			if r.Host != "" {
				t.Errorf("input request %s was annotated", r.URL)
			}
		}
	})

	t.Run("insecure count", func(t *testing.T) {
		t.Parallel()
		if got := InsecureRequestsCount(b); got != 3 {
			t.Errorf("expected 1 insecure third-party + 2 insecure first-party, got %d", got)
		}
	})
}

// TestFirstRequestExclusion checks that exactly one candidate is dropped.
func TestFirstRequestExclusion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		urls       []string
		candidates int
	}{
		{"no requests", nil, 0},
		{"only secure", []string{"https://example.com/", "https://example.com/a"}, 0},
		{"only navigation", []string{"http://example.com/"}, 1},
		{"navigation and one resource", []string{"http://example.com/", "http://example.com/a"}, 2},
		{"first candidate is not first request", []string{"https://example.com/", "http://example.com/a", "http://example.com/b"}, 2},
		{"third party only", []string{"http://other.net/"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := ClassifyRequests(requests(tt.urls...), "example.com")
			want := tt.candidates - 1
			if tt.candidates == 0 {
				want = 0
			}
			if len(b.InsecureFirstParty) != want {
				t.Errorf("expected %d insecure first-party requests, got %d", want, len(b.InsecureFirstParty))
			}
		})
	}
}

// TestClassifyRequestsDisjoint checks no request lands in both buckets.
func TestClassifyRequestsDisjoint(t *testing.T) {
	t.Parallel()

	reqs := requests(
		"http://example.com/", "http://a.example.com/", "http://b.other.net/",
		"https://c.other.net/", "http://example.com:8080/x", "HTTP://EXAMPLE.COM/Y",
		"ftp://example.com/f", "http://10.0.0.1/", "mailto:x@example.com",
	)
	b := ClassifyRequests(reqs, "example.com")

	third := make(map[string]bool)
	for _, r := range b.ThirdParty {
		third[r.URL] = true
	}
	for _, r := range b.InsecureFirstParty {
		if third[r.URL] {
			t.Errorf("%s is in both buckets", r.URL)
		}
	}
	if len(b.ThirdParty)+len(b.InsecureFirstParty) > len(reqs) {
		t.Error("buckets hold more requests than the input")
	}
}

// TestClassifyRequestsWithoutHost checks requests without a host are excluded.
func TestClassifyRequestsWithoutHost(t *testing.T) {
	t.Parallel()

	b := ClassifyRequests(requests("", "/relative", "about:blank", "http://%zz/"), "example.com")
	if len(b.ThirdParty) != 0 || len(b.InsecureFirstParty) != 0 {
		t.Errorf("expected no classified requests, got %+v", b)
	}
	if b.ThirdParty == nil || b.InsecureFirstParty == nil {
		t.Error("expected non-nil empty buckets")
	}
}

// TestDropNavigationArtifact tests the named post-processing step.
func TestDropNavigationArtifact(t *testing.T) {
	t.Parallel()

	if got := dropNavigationArtifact(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
	got := dropNavigationArtifact(requests("http://a/", "http://b/"))
	if len(got) != 1 || got[0].URL != "http://b/" {
		t.Errorf("got %v", urlsOf(got))
	}
}

// TestRequestTypeCounts tests secure/insecure counting by URL prefix.
func TestRequestTypeCounts(t *testing.T) {
	t.Parallel()

	got := RequestTypeCounts(requests("https://a/", "http://b/", "https://c/", "ws://d/"))
	if got != (model.RequestTypeCount{Secure: 2, Insecure: 2}) {
		t.Errorf("got %+v", got)
	}
}

// TestRequestCounts tests total and unique host counting.
func TestRequestCounts(t *testing.T) {
	t.Parallel()

	reqs := []model.Request{
		{URL: "https://a.net/1", Host: "a.net"},
		{URL: "https://a.net/2", Host: "a.net"},
		{URL: "https://b.net/1", Host: "b.net"},
	}
	got := RequestCounts(reqs)
	if got != (model.RequestCount{Total: 3, UniqueHosts: 2}) {
		t.Errorf("got %+v", got)
	}

	if empty := RequestCounts(nil); empty != (model.RequestCount{}) {
		t.Errorf("got %+v for no requests", empty)
	}
}
