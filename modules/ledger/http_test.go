package ledger_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/modules/ledger"
	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/svc/auth"
)

type client struct {
	t      *testing.T
	srv    http.Handler
	userID uuid.UUID
}

func newClient(t *testing.T) *client {
	svc, _ := newService()
	r := chi.NewRouter()
	ledger.NewHandler(svc, handler.NewErrorHandler(logger.Discard())).Mount(r)
	return &client{t: t, srv: r, userID: uuid.New()}
}

func (c *client) as(userID uuid.UUID) *client {
	return &client{t: c.t, srv: c.srv, userID: userID}
}

func (c *client) do(method, path, body string) (int, map[string]any) {
	c.t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if c.userID != uuid.Nil {
		r = r.WithContext(auth.SetIdentity(r.Context(), auth.Identity{UserID: c.userID}))
	}
	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, r)

	var out map[string]any
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHTTPLedger(t *testing.T) {
	t.Parallel()
	c := newClient(t)

	status, body := c.do(http.MethodPost, "/categories", `{"name":"Groceries","kind":"expense"}`)
	require.Equal(t, http.StatusCreated, status, body)
	catID := body["category"].(map[string]any)["id"].(string)

	status, body = c.do(http.MethodPost, "/categories", `{"name":"Groceries","kind":"expense"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])

	status, body = c.do(http.MethodPost, "/transactions",
		`{"kind":"expense","amountCents":2599,"currency":"usd","categoryId":"`+catID+`","description":"Market","occurredAt":"2026-05-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, status, body)
	tx := body["transaction"].(map[string]any)
	txID := tx["id"].(string)
	assert.Equal(t, "USD", tx["currency"])
	assert.Equal(t, float64(2599), tx["amountCents"])

	status, body = c.do(http.MethodPost, "/transactions", `{"kind":"expense","amountCents":0,"currency":"USD"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Contains(t, body["errors"], "amountCents")

	status, body = c.do(http.MethodGet, "/transactions?kind=expense&from=2026-04-01&category="+catID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = c.do(http.MethodGet, "/transactions?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["errors"], "limit")

	status, _ = c.do(http.MethodGet, "/transactions?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodGet, "/transactions/"+txID, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = c.as(uuid.New()).do(http.MethodGet, "/transactions/"+txID, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Transaction not found", body["message"])

	status, _ = c.do(http.MethodGet, "/transactions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = c.do(http.MethodPut, "/budgets", `{"categoryId":"`+catID+`","amountCents":50000,"period":"monthly"}`)
	require.Equal(t, http.StatusOK, status, body)
	budgetID := body["budget"].(map[string]any)["id"].(string)

	status, body = c.do(http.MethodGet, "/budgets", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["budgets"], 1)

	status, _ = c.do(http.MethodDelete, "/budgets/"+budgetID, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodDelete, "/transactions/"+txID, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodDelete, "/categories/"+catID, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["categories"])
}

func TestHTTPLedgerRequiresIdentity(t *testing.T) {
	t.Parallel()
	c := newClient(t).as(uuid.Nil)

	for _, path := range []string{"/categories", "/transactions", "/budgets"} {
		status, body := c.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, false, body["success"], path)
	}
}
