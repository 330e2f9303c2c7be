package privacy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/privacyscan/internal/model"
)

// ErrInvalidPolicyRating is returned when a policy table rates a value with
// something other than success, warning or alert.
var ErrInvalidPolicyRating = errors.New("invalid referrer policy rating")

// PolicyTable maps referrer policy values to ratings.
// Keys are lower case policy tokens.
//
// Design decision: The table is data, not code. Which values count as safe
// follows the W3C Referrer Policy recommendation and browser defaults, both
// of which change over time, so the table can be replaced from the config file.
type PolicyTable map[string]model.Rating

// DefaultPolicyTable returns the built-in rating table.
//
// Values that never send more than the origin cross-origin are rated success.
// Values that send the full URL to other origins are rated alert.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		"no-referrer":                     model.RatingSuccess,
		"same-origin":                     model.RatingSuccess,
		"strict-origin":                   model.RatingSuccess,
		"strict-origin-when-cross-origin": model.RatingSuccess,
		"origin":                          model.RatingSuccess,
		"origin-when-cross-origin":        model.RatingSuccess,
		"unsafe-url":                      model.RatingAlert,
		"no-referrer-when-downgrade":      model.RatingAlert,
	}
}

// Validate checks that every entry carries a usable rating.
func (t PolicyTable) Validate() error {
	for value, rating := range t {
		switch rating {
		case model.RatingSuccess, model.RatingWarning, model.RatingAlert:
		default:
			return fmt.Errorf("%w: %q for %q", ErrInvalidPolicyRating, rating, value)
		}
	}
	return nil
}

// Merge returns a copy of t with the entries of override applied on top.
// Override keys are lower-cased.
func (t PolicyTable) Merge(override map[string]model.Rating) PolicyTable {
	merged := make(PolicyTable, len(t)+len(override))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range override {
		merged[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return merged
}

// Effective returns the policy token a browser would apply for value.
//
// A policy value may be a comma separated list; browsers apply the last
// token they understand so sites can list fallbacks for older browsers.
// When no token is in the table the last token is returned as-is.
func (t PolicyTable) Effective(value string) string {
	tokens := make([]string, 0, 1)
	for _, tok := range strings.Split(value, ",") {
		tok = strings.ToLower(strings.Trim(strings.TrimSpace(tok), `'"`))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return ""
	}

	for i := len(tokens) - 1; i >= 0; i-- {
		if _, ok := t[tokens[i]]; ok {
			return tokens[i]
		}
	}
	return tokens[len(tokens)-1]
}

// Rate returns the rating of an effective policy token.
// An empty token is missing; a token not in the table is a warning.
func (t PolicyTable) Rate(token string) model.Rating {
	if token == "" {
		return model.RatingMissing
	}
	if rating, ok := t[token]; ok {
		return rating
	}
	return model.RatingWarning
}

// Evaluate resolves the three raw sources by precedence and rates the winner.
func (t PolicyTable) Evaluate(meta, csp, header *string) model.ReferrerPolicy {
	signal := Resolve(meta, csp, header)
	if !signal.Present() {
		return model.ReferrerPolicy{
			Source: model.ReferrerSourceNone,
			Rating: model.RatingMissing,
		}
	}

	token := t.Effective(signal.Value)
	return model.ReferrerPolicy{
		Source: signal.Source,
		Value:  token,
		Rating: t.Rate(token),
	}
}
