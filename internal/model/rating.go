package model

// Rating is the verdict attached to a privacy signal.
//
// Design decision: Ratings are strings rather than iota constants because they
// are part of the JSON output contract and consumers (view layers, jq scripts)
// match on the literal values.
type Rating string

const (
	// RatingSuccess means the signal guarantees that no more than the origin
	// leaks to other sites.
	RatingSuccess Rating = "success"

	// RatingWarning means a value was present but is not listed in the
	// configured policy table, so its effect could not be judged.
	RatingWarning Rating = "warning"

	// RatingAlert means the signal allows full URLs to leak cross-origin.
	RatingAlert Rating = "alert"

	// RatingMissing means no signal was present at all.
	RatingMissing Rating = "missing"
)

// String returns the rating as a string.
func (r Rating) String() string {
	return string(r)
}

// ReferrerSource identifies where an effective referrer policy came from.
type ReferrerSource string

const (
	// ReferrerSourceMeta is an HTML <meta name="referrer"> element.
	ReferrerSourceMeta ReferrerSource = "meta"

	// ReferrerSourceCSP is a referrer directive inside Content-Security-Policy.
	ReferrerSourceCSP ReferrerSource = "csp"

	// ReferrerSourceHeader is the dedicated Referrer-Policy response header.
	ReferrerSourceHeader ReferrerSource = "header"

	// ReferrerSourceNone means no source carried a policy.
	ReferrerSourceNone ReferrerSource = "none"
)

// String returns the source as a string.
func (s ReferrerSource) String() string {
	return string(s)
}
