package binder

import "net/http"

// BindQuery binds query parameters into fields tagged `query:"name"`.
// Slices accept repeated or comma separated values; pointers mark optional
// fields; time.Time accepts RFC 3339 or YYYY-MM-DD.
//
//	type listRequest struct {
//		From  *time.Time `query:"from"`
//		Kind  string     `query:"kind"`
//		Limit int        `query:"limit"`
//	}
func BindQuery() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
