package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestPrivacyReportHelpers tests the derived accessors on PrivacyReport.
func TestPrivacyReportHelpers(t *testing.T) {
	t.Parallel()

	t.Run("Secure", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			scheme string
			want   bool
		}{
			{"https", true},
			{"http", false},
			{"", false},
		}
		for _, tt := range tests {
			r := &PrivacyReport{Scheme: tt.scheme}
			if got := r.Secure(); got != tt.want {
				t.Errorf("Secure() with scheme %q = %v, want %v", tt.scheme, got, tt.want)
			}
		}
	})

	t.Run("TotalCookies", func(t *testing.T) {
		t.Parallel()

		r := &PrivacyReport{CookieCount: PartyCount{FirstParty: 13, ThirdParty: 2}}
		if got := r.TotalCookies(); got != 15 {
			t.Errorf("got %d, want 15", got)
		}
	})
}

// TestPrivacyReportJSONShape checks the output field names consumed by view layers.
func TestPrivacyReportJSONShape(t *testing.T) {
	t.Parallel()

	policy := "no-referrer"
	r := PrivacyReport{
		Scheme:      "https",
		CSPReferrer: &policy,
		ReferrerPolicy: ReferrerPolicy{
			Source: ReferrerSourceCSP,
			Value:  policy,
			Rating: RatingSuccess,
		},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)

	for _, key := range []string{
		`"cookie_count":{"first_party":0,"third_party":0}`,
		`"third_party_request_types":{"secure":0,"insecure":0}`,
		`"third_party_request_count":{"total":0,"unique_hosts":0}`,
		`"insecure_requests_count":0`,
		`"csp_referrer":"no-referrer"`,
		`"meta_referrer":null`,
		`"referrer_policy":{"source":"csp","value":"no-referrer","rating":"success"}`,
	} {
		if !strings.Contains(out, key) {
			t.Errorf("expected %s in %s", key, out)
		}
	}

	t.Run("missing policy omits value", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(ReferrerPolicy{Source: ReferrerSourceNone, Rating: RatingMissing})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"source":"none","rating":"missing"}` {
			t.Errorf("got %s", data)
		}
	})
}
