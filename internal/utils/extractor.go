package utils

import (
	"net"
	"net/http"
	"strings"
)

// Extractor represents the way we derive a rate limiting identifier
// from an HTTP request. Implementations must not cause side effects on
// the request (in particular, they must not read the body).
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

type clientIPExtractor struct{}

// NewClientIPExtractor creates an Extractor that resolves the caller's
// IP address, looking through the proxy headers load balancers
// commonly set before falling back to the connection's remote address.
func NewClientIPExtractor() Extractor {
	return &clientIPExtractor{}
}

func (e *clientIPExtractor) Extract(r *http.Request) (string, error) {
	// X-Forwarded-For can carry a chain of addresses; the first one is
	// the original client.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip, nil
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP, nil
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, as httptest and some proxies
		// produce.
		return r.RemoteAddr, nil
	}
	return host, nil
}
