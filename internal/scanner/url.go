package scanner

import (
	"net/url"
)

// ValidateURL reports whether raw is an absolute http(s) URL with a host.
// Anything else is classified as invalid input and never fetched.
func ValidateURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// BaseURL reduces raw to its scheme://host origin, the location of the
// site's robots.txt. Unparseable input is returned unchanged.
func BaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	base := url.URL{Scheme: u.Scheme, Host: u.Host}
	return base.String()
}
