package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc extracts a raw token from a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// ErrorFunc writes the response for a rejected token.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// BearerTokenExtractor reads "Authorization: Bearer <token>" (RFC 6750).
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Middleware accepts only bearer tokens issued for purpose and stores their
// claims in the request context. Rejections go to onError.
func Middleware(service *Service, purpose string, onError ErrorFunc) func(next http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerTokenExtractor(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			claims, err := service.Parse(raw, purpose)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetClaims(r.Context(), claims)))
		})
	}
}
