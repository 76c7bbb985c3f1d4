package twofactor_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/modules/twofactor"
	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/svc/auth"
)

func newServer(f *fixture, userID uuid.UUID) http.Handler {
	routes := twofactor.NewHandler(f.svc, handler.NewErrorHandler(logger.Discard())).Routes()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != uuid.Nil {
			r = r.WithContext(auth.SetIdentity(r.Context(), auth.Identity{UserID: userID}))
		}
		routes.ServeHTTP(w, r)
	})
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHandlerFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	srv := newServer(f, f.userID)

	status, body := call(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["enabled"])
	assert.Equal(t, "disabled", body["state"])

	status, body = call(t, srv, http.MethodPost, "/enable", `{"code":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Two-factor setup has not been started", body["message"])

	status, body = call(t, srv, http.MethodPost, "/setup", "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["secret"])
	assert.True(t, strings.HasPrefix(body["uri"].(string), "otpauth://totp/"))
	assert.True(t, strings.HasPrefix(body["qrCode"].(string), "data:image/png;base64,"))

	status, body = call(t, srv, http.MethodPost, "/enable", `{"code":"`+f.wrongCode(t)+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid verification code", body["message"])

	status, body = call(t, srv, http.MethodPost, "/enable", `{"code":"`+f.code(t)+`"}`)
	require.Equal(t, http.StatusOK, status)
	codes, ok := body["backupCodes"].([]any)
	require.True(t, ok)
	assert.Len(t, codes, 10)

	status, body = call(t, srv, http.MethodPost, "/setup", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Two-factor authentication is already enabled", body["message"])

	status, body = call(t, srv, http.MethodPost, "/backup-codes", `{"code":"`+f.code(t)+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["backupCodes"], 10)

	status, body = call(t, srv, http.MethodPost, "/disable", `{"password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid password", body["message"])
	assert.True(t, f.storage.get(f.userID).Enabled)

	status, body = call(t, srv, http.MethodPost, "/disable", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.False(t, f.storage.get(f.userID).Enabled)
}

func TestHandlerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		userID  func(f *fixture) uuid.UUID
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{
			name:    "missing identity",
			userID:  func(*fixture) uuid.UUID { return uuid.Nil },
			method:  http.MethodGet,
			path:    "/",
			status:  http.StatusUnauthorized,
			message: handler.ErrUnauthorized.Message,
		},
		{
			name:    "unknown user",
			userID:  func(*fixture) uuid.UUID { return uuid.New() },
			method:  http.MethodPost,
			path:    "/setup",
			status:  http.StatusNotFound,
			message: "User not found",
		},
		{
			name:    "missing code",
			userID:  func(f *fixture) uuid.UUID { return f.userID },
			method:  http.MethodPost,
			path:    "/enable",
			body:    `{"code":""}`,
			status:  http.StatusBadRequest,
			message: "Validation failed",
		},
		{
			name:   "client supplied secret is rejected",
			userID: func(f *fixture) uuid.UUID { return f.userID },
			method: http.MethodPost,
			path:   "/enable",
			body:   `{"code":"123456","secret":"JBSWY3DPEHPK3PXP"}`,
			status: http.StatusBadRequest,
		},
		{
			name:    "missing password",
			userID:  func(f *fixture) uuid.UUID { return f.userID },
			method:  http.MethodPost,
			path:    "/disable",
			body:    `{}`,
			status:  http.StatusBadRequest,
			message: "Validation failed",
		},
		{
			name:    "disable when not enabled",
			userID:  func(f *fixture) uuid.UUID { return f.userID },
			method:  http.MethodPost,
			path:    "/disable",
			body:    `{"password":"` + testPassword + `"}`,
			status:  http.StatusBadRequest,
			message: "Two-factor authentication is not enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			status, body := call(t, newServer(f, tt.userID(f)), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, body["success"])
			if tt.message != "" {
				assert.Equal(t, tt.message, body["message"])
			}
		})
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	var httpErr handler.HTTPError
	err := twofactor.MapError(twofactor.ErrSetupCorrupted)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, "Setup corrupted, please restart setup", httpErr.Message)
	assert.ErrorIs(t, err, twofactor.ErrSetupCorrupted)

	assert.Same(t, assert.AnError, twofactor.MapError(assert.AnError))
}
