package ratelimiter

import (
	"math"
	"net/http"
	"strconv"
)

// DeniedFunc writes the response for a request over the limit.
// Rate limit headers and Retry-After are already set.
type DeniedFunc func(w http.ResponseWriter, r *http.Request, result *Result)

// ErrorFunc writes the response when the store fails.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

type middlewareOptions struct {
	onDenied DeniedFunc
	onError  ErrorFunc
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareOptions)

// WithDeniedHandler replaces the plain-text 429 response.
func WithDeniedHandler(fn DeniedFunc) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.onDenied = fn
	}
}

// WithErrorHandler replaces the plain-text 500 response.
func WithErrorHandler(fn ErrorFunc) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.onError = fn
	}
}

// Middleware limits requests by the key keyFunc extracts. Requests with an
// empty key pass through unlimited.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{
		onDenied: func(w http.ResponseWriter, _ *http.Request, _ *Result) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		},
		onError: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				o.onError(w, r, err)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				retryAfter := int(math.Ceil(result.RetryAfter().Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(1, retryAfter)))
				o.onDenied(w, r, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
