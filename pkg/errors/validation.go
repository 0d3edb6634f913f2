package errors

import (
	"net/url"
	"regexp"
)

// maxPositionLen bounds a position slug.
const maxPositionLen = 64

// positionRegex matches position slugs as the projection service names them
// ("forward", "centre-back", "goalkeeper"). Anything that could leave the
// path segment fails it.
var positionRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidatePosition checks a position slug before it is placed in a URL path.
func ValidatePosition(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPosition, "position cannot be empty")
	case len(name) > maxPositionLen:
		return New(ErrCodeInvalidPosition, "position too long (max %d characters)", maxPositionLen)
	case !positionRegex.MatchString(name):
		return New(ErrCodeInvalidPosition, "invalid position: %q", name)
	}
	return nil
}

// ValidateGroupCount checks a manual group count against [lo, hi].
func ValidateGroupCount(k, lo, hi int) error {
	if k < lo || k > hi {
		return New(ErrCodeInvalidInput, "group count %d out of range [%d, %d]", k, lo, hi)
	}
	return nil
}

// ValidateURL checks a service base URL: http or https with a host, and no
// query or fragment since request paths are appended to it.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return New(ErrCodeInvalidInput, "base URL %q must not carry a query or fragment", rawURL)
	}
	return nil
}
