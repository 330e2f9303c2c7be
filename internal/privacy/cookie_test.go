package privacy

import (
	"fmt"
	"testing"

	"github.com/nao1215/privacyscan/internal/model"
)

func cookie(domain, name string) model.Cookie {
	return model.Cookie{Domain: domain, Name: name}
}

// TestClassifyCookies tests the first/third-party cookie partition.
func TestClassifyCookies(t *testing.T) {
	t.Parallel()

	cookies := []model.Cookie{
		cookie(".example.com", "sid"),
		cookie("ads.tracker.net", "uid"),
		cookie("www.example.com", "pref"),
		cookie(".tracker.net", "uid2"),
		cookie(".cdn.other.org", "x"),
	}

	buckets := ClassifyCookies(cookies, "example.com")

	t.Run("first party keeps input order", func(t *testing.T) {
		t.Parallel()
		if len(buckets.FirstParty) != 2 {
			t.Fatalf("expected 2 first-party cookies, got %d", len(buckets.FirstParty))
		}
		if buckets.FirstParty[0].Name != "sid" || buckets.FirstParty[1].Name != "pref" {
			t.Errorf("unexpected order: %v", buckets.FirstParty)
		}
	})

	t.Run("third party keeps input order", func(t *testing.T) {
		t.Parallel()
		names := make([]string, 0, len(buckets.ThirdParty))
		for _, c := range buckets.ThirdParty {
			names = append(names, c.Name)
		}
		if fmt.Sprint(names) != "[uid uid2 x]" {
			t.Errorf("got %v", names)
		}
	})

	t.Run("counts", func(t *testing.T) {
		t.Parallel()
		got := CountCookies(buckets)
		if got != (model.PartyCount{FirstParty: 2, ThirdParty: 3}) {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("distinct third-party domains", func(t *testing.T) {
		t.Parallel()
		if got := ThirdPartyCookieDomains(buckets); got != 2 {
			t.Errorf("expected tracker.net and other.org, got %d", got)
		}
	})
}

// TestClassifyCookiesCompleteness checks that every cookie lands in exactly one bucket.
func TestClassifyCookiesCompleteness(t *testing.T) {
	t.Parallel()

	domains := []string{
		"", ".", "..example.com", "example.com", ".EXAMPLE.com", "sub.example.com",
		"localhost", "127.0.0.1", "co.uk", "example.co.uk", ".github.io", "foo.github.io",
	}

	for n := 0; n <= len(domains); n++ {
		cookies := make([]model.Cookie, 0, n)
		for i := 0; i < n; i++ {
			cookies = append(cookies, cookie(domains[i], fmt.Sprintf("c%d", i)))
		}
		for _, page := range []string{"example.com", "localhost", "co.uk"} {
			b := ClassifyCookies(cookies, page)
			if len(b.FirstParty)+len(b.ThirdParty) != len(cookies) {
				t.Errorf("page %s, %d cookies: got %d + %d", page, n, len(b.FirstParty), len(b.ThirdParty))
			}
		}
	}
}

// TestClassifyCookiesEmpty checks that empty buckets are non-nil.
func TestClassifyCookiesEmpty(t *testing.T) {
	t.Parallel()

	b := ClassifyCookies(nil, "example.com")
	if b.FirstParty == nil || b.ThirdParty == nil {
		t.Error("expected non-nil empty buckets")
	}
}

// TestCookieDomain tests leading dot removal.
func TestCookieDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{".example.com", "example.com"},
		{"example.com", "example.com"},
		{"..example.com", ".example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CookieDomain(cookie(tt.in, "n")); got != tt.want {
			t.Errorf("CookieDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
