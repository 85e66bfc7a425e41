package util

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"complianceanalyzer/internal/apperr"
)

// GetClientIPAddress returns the first X-Forwarded-For hop, falling back to
// the connection's remote address.
func GetClientIPAddress(r *http.Request) string {
	if forwardedIP := r.Header.Get("X-Forwarded-For"); forwardedIP != "" {
		first, _, _ := strings.Cut(forwardedIP, ",")
		return strings.TrimSpace(first)
	}
	ip := r.RemoteAddr
	return ip
}

// ParseTarget builds the absolute https URL for a bare host+path parameter.
// Any failure wraps apperr.ErrInvalidURL.
func ParseTarget(param string) (*url.URL, error) {
	if param == "" {
		return nil, fmt.Errorf("%w: empty url", apperr.ErrInvalidURL)
	}

	u, err := url.Parse("https://" + param)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidURL, err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", apperr.ErrInvalidURL, param)
	}

	return u, nil
}
