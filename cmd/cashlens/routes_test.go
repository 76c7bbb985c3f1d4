package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/modules/account"
	"github.com/cashlens/cashlens/modules/ledger"
	"github.com/cashlens/cashlens/modules/twofactor"
	"github.com/cashlens/cashlens/pkg/clientip"
	"github.com/cashlens/cashlens/pkg/httpserver"
	"github.com/cashlens/cashlens/pkg/jwt"
	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/ratelimiter"
	"github.com/cashlens/cashlens/pkg/totp"
)

// newTestRouter builds the full router without storage. Only requests that
// are answered before a storage call are safe to send.
func newTestRouter(t *testing.T, checks ...httpserver.Check) http.Handler {
	t.Helper()

	store := ratelimiter.NewMemoryStore()
	t.Cleanup(store.Close)
	limits, err := newLimiters(store)
	require.NoError(t, err)

	tokens, err := jwt.New(strings.Repeat("k", jwt.MinKeySize), "cashlens-test")
	require.NoError(t, err)
	codec, err := totp.NewCodec("routes-test-key")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	log := logger.Discard()
	eh := handler.NewErrorHandler(log)

	twoFactorSvc := twofactor.NewService(nil, codec, twofactor.WithMetrics(twofactor.NewMetrics(registry)))
	accountSvc, err := account.NewService(nil, tokens, twoFactorSvc,
		account.Config{SigningKey: strings.Repeat("k", jwt.MinKeySize), Issuer: "cashlens-test", BcryptCost: bcrypt.MinCost},
		account.WithMetrics(account.NewMetrics(registry)),
	)
	require.NoError(t, err)

	return newRouter(routerDeps{
		log:       log,
		registry:  registry,
		clientIP:  clientip.NewResolver(),
		tokens:    tokens,
		limits:    limits,
		account:   account.NewHandler(accountSvc, eh),
		twoFactor: twofactor.NewHandler(twoFactorSvc, eh),
		ledger:    ledger.NewHandler(ledger.NewService(nil), eh),
		checks:    checks,
		readiness: time.Second,
	})
}

func serve(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestRouterFallbacks(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	t.Run("unknown route", func(t *testing.T) {
		t.Parallel()
		rec, body := serve(t, h, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Not found", body["message"])
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()
		rec, body := serve(t, h, http.MethodDelete, "/auth/login", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("request id is echoed", func(t *testing.T) {
		t.Parallel()
		rec, _ := serve(t, h, http.MethodGet, "/health/live", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestRouterProtectedRoutes(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodGet, "/2fa"},
		{http.MethodPost, "/2fa/setup"},
		{http.MethodGet, "/categories"},
		{http.MethodGet, "/transactions"},
		{http.MethodPut, "/budgets"},
		{http.MethodPost, "/auth/2fa/verify"},
	} {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			t.Parallel()
			rec, body := serve(t, h, route.method, route.path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestRouterRateLimitsRegistration(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	// An empty body fails validation before any storage access.
	for range 5 {
		rec, _ := serve(t, h, http.MethodPost, "/auth/register", "{}")
		assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}

	rec, body := serve(t, h, http.MethodPost, "/auth/register", "{}")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRouterHealthAndMetrics(t *testing.T) {
	t.Parallel()

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		h := newTestRouter(t, httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }})
		rec, _ := serve(t, h, http.MethodGet, "/health/ready", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		h := newTestRouter(t, httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("down") }})
		rec, _ := serve(t, h, http.MethodGet, "/health/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "redis")
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()
		h := newTestRouter(t)
		rec, _ := serve(t, h, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "cashlens_auth_registrations_total")
	})
}
