// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value populated by binders
// (see package binder) and returns a Response. Every response is a JSON
// envelope:
//
//	{"success": true, "message": "Two-factor authentication enabled", "backupCodes": [...]}
//
// Errors returned through Error are classified by Classify:
// validator.ValidationErrors become 400 with an "errors" map, HTTPError uses its
// own status and message, binder failures become 400, and anything else is a
// generic 500 whose cause is only logged.
//
//	r.Post("/auth/login", handler.Wrap(h.login,
//		handler.WithBinders[handler.Context, loginRequest](binder.BindJSON()),
//		handler.WithErrorHandler[handler.Context, loginRequest](errorHandler),
//	))
package handler
