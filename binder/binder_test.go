package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens/cashlens/binder"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func jsonRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     error
	}{
		{"valid", `{"email":"a@b.co","password":"x"}`, "application/json", nil},
		{"charset param", `{"email":"a@b.co"}`, "application/json; charset=utf-8", nil},
		{"missing content type", `{}`, "", binder.ErrMissingContentType},
		{"wrong content type", `{}`, "text/plain", binder.ErrUnsupportedMediaType},
		{"empty body", ``, "application/json", binder.ErrInvalidJSON},
		{"unknown field", `{"emial":"a@b.co"}`, "application/json", binder.ErrInvalidJSON},
		{"trailing data", `{"email":"a"}{"email":"b"}`, "application/json", binder.ErrInvalidJSON},
		{"wrong type", `{"email":1}`, "application/json", binder.ErrInvalidJSON},
		{"too large", `{"email":"` + strings.Repeat("a", binder.MaxJSONBodySize) + `"}`, "application/json", binder.ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var req loginRequest
			err := binder.BindJSON()(jsonRequest(tt.body, tt.contentType), &req)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "a@b.co", req.Email)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, binder.IsBindingError(err))
		})
	}
}

type listRequest struct {
	From     *time.Time `query:"from"`
	To       time.Time  `query:"to"`
	Kind     string     `query:"kind"`
	Limit    int        `query:"limit"`
	Category *uuid.UUID `query:"category"`
	Tags     []string   `query:"tags"`
	Internal string     `query:"-"`
}

func TestBindQuery(t *testing.T) {
	t.Parallel()

	catID := uuid.New()

	t.Run("binds all supported types", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet,
			"/?from=2026-01-01&to=2026-02-01T10:00:00Z&kind=expense&limit=20&category="+catID.String()+"&tags=a,b&tags=c&Internal=x", nil)

		var req listRequest
		require.NoError(t, binder.BindQuery()(r, &req))

		require.NotNil(t, req.From)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *req.From)
		assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), req.To)
		assert.Equal(t, "expense", req.Kind)
		assert.Equal(t, 20, req.Limit)
		require.NotNil(t, req.Category)
		assert.Equal(t, catID, *req.Category)
		assert.Equal(t, []string{"a", "b", "c"}, req.Tags)
		assert.Empty(t, req.Internal)
	})

	t.Run("missing values stay zero", func(t *testing.T) {
		t.Parallel()
		var req listRequest
		require.NoError(t, binder.BindQuery()(httptest.NewRequest(http.MethodGet, "/", nil), &req))
		assert.Nil(t, req.From)
		assert.Nil(t, req.Category)
		assert.Zero(t, req.Limit)
	})

	for _, q := range []string{"limit=ten", "from=yesterday", "category=nope"} {
		t.Run("invalid "+q, func(t *testing.T) {
			t.Parallel()
			var req listRequest
			err := binder.BindQuery()(httptest.NewRequest(http.MethodGet, "/?"+q, nil), &req)
			assert.ErrorIs(t, err, binder.ErrInvalidQuery)
		})
	}

	t.Run("non struct target", func(t *testing.T) {
		t.Parallel()
		var s string
		err := binder.BindQuery()(httptest.NewRequest(http.MethodGet, "/", nil), &s)
		assert.ErrorIs(t, err, binder.ErrInvalidQuery)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	type idRequest struct {
		ID uuid.UUID `path:"id"`
	}

	id := uuid.New()
	params := map[string]string{"id": id.String()}
	extract := func(_ *http.Request, name string) string { return params[name] }

	var req idRequest
	require.NoError(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &req))
	assert.Equal(t, id, req.ID)

	bad := func(_ *http.Request, _ string) string { return "not-a-uuid" }
	err := binder.Path(bad)(httptest.NewRequest(http.MethodGet, "/", nil), &req)
	assert.ErrorIs(t, err, binder.ErrInvalidPath)

	err = binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &req)
	assert.ErrorIs(t, err, binder.ErrInvalidPath)
}
