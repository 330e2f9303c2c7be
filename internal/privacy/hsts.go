package privacy

import (
	"strconv"
	"strings"

	"github.com/nao1215/privacyscan/internal/model"
)

const headerHSTS = "Strict-Transport-Security"

// ParseHSTS parses a Strict-Transport-Security header value.
// Directive names are case-insensitive; an invalid max-age is reported as 0.
func ParseHSTS(value string) model.HSTS {
	value = strings.TrimSpace(value)
	if value == "" {
		return model.HSTS{}
	}

	hsts := model.HSTS{Present: true, Value: value}
	for _, directive := range strings.Split(value, ";") {
		name, arg, _ := strings.Cut(strings.TrimSpace(directive), "=")
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "max-age":
			n, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(arg), `"`), 10, 64)
			if err == nil && n > 0 {
				hsts.MaxAge = n
			}
		case "includesubdomains":
			hsts.IncludeSubdomains = true
		case "preload":
			hsts.Preload = true
		}
	}
	return hsts
}

// HSTSFromHeaders parses the HSTS header from response headers.
func HSTSFromHeaders(headers model.Headers) model.HSTS {
	return ParseHSTS(headers.Get(headerHSTS))
}
