// Package clientip resolves the originating client address of a request.
//
// Proxy headers are client-controlled unless a trusted proxy overwrites them,
// so a Resolver only reads the headers it was configured with and otherwise
// falls back to the TCP peer address. Rate limiting keys on this value, which
// is why trusting headers is opt-in.
package clientip

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Config lists the proxy headers to trust, highest priority first,
// for example "CF-Connecting-IP,X-Forwarded-For".
type Config struct {
	TrustedHeaders []string `env:"CLIENT_IP_TRUSTED_HEADERS" envSeparator:","`
}

// Resolver extracts client IPs. The zero value uses RemoteAddr only.
type Resolver struct {
	headers []string
}

// NewResolver creates a Resolver trusting the given headers in order.
func NewResolver(trustedHeaders ...string) *Resolver {
	headers := make([]string, 0, len(trustedHeaders))
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: headers}
}

// IP returns the normalized client address, or "" when none is valid.
// Comma-separated headers such as X-Forwarded-For yield their first valid entry.
func (res *Resolver) IP(r *http.Request) string {
	for _, name := range res.headers {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		for part := range strings.SplitSeq(value, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// Middleware stores the resolved IP in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetIPToContext(r.Context(), res.IP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIP resolves the peer address without trusting any header.
func GetIP(r *http.Request) string {
	var res Resolver
	return res.IP(r)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}

type clientIPContextKey struct{}

// SetIPToContext stores client IP in context.
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// GetIPFromContext retrieves client IP from context.
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
