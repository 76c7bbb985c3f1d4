package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cashlens/cashlens/binder"
	"github.com/cashlens/cashlens/pkg/validator"
)

// envelope renders {"success": bool, "message": string, ...payload}.
// Object payloads are merged into the top level; anything else goes under "data".
type envelope struct {
	status  int
	message string
	payload any
	headers http.Header
}

func (e envelope) Render(w http.ResponseWriter, _ *http.Request) error {
	body, err := e.marshal()
	if err != nil {
		return err
	}
	for k, vs := range e.headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.status)
	_, err = w.Write(body)
	return err
}

func (e envelope) marshal() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if e.payload != nil {
		raw, err := json.Marshal(e.payload)
		if err != nil {
			return nil, err
		}
		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			if err := json.Unmarshal(raw, &fields); err != nil {
				return nil, err
			}
		} else if !bytes.Equal(raw, []byte("null")) {
			fields["data"] = raw
		}
	}

	success, _ := json.Marshal(e.status < http.StatusBadRequest)
	message, _ := json.Marshal(e.message)
	fields["success"] = success
	fields["message"] = message

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

// JSONOption configures a JSON response.
type JSONOption func(*envelope)

// WithHeader adds a response header.
func WithHeader(key, value string) JSONOption {
	return func(e *envelope) {
		if e.headers == nil {
			e.headers = http.Header{}
		}
		e.headers.Add(key, value)
	}
}

// JSON renders the envelope with an explicit status. success is derived from it.
func JSON(status int, message string, payload any, opts ...JSONOption) Response {
	e := envelope{status: status, message: message, payload: payload}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// OK renders a 200 envelope.
func OK(message string, payload any, opts ...JSONOption) Response {
	return JSON(http.StatusOK, message, payload, opts...)
}

// Created renders a 201 envelope.
func Created(message string, payload any, opts ...JSONOption) Response {
	return JSON(http.StatusCreated, message, payload, opts...)
}

// errorResponse defers rendering to the configured ErrorHandler so failures
// are logged in one place.
type errorResponse struct {
	err error
}

func (e errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	status, message, payload := Classify(e.err)
	return JSON(status, message, payload).Render(w, r)
}

// Error returns a Response for err. Inside Wrap it is handed to the
// ErrorHandler; rendered directly it writes the classified envelope.
func Error(err error) Response {
	if err == nil {
		err = ErrInternalServerError
	}
	return errorResponse{err: err}
}

type validationPayload struct {
	Errors map[string][]string `json:"errors"`
}

// Classify maps err to a status, a client-safe message and an optional payload.
// Unknown errors become a generic 500 so internals never reach the client.
func Classify(err error) (int, string, any) {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		return http.StatusBadRequest, "Validation failed", validationPayload{Errors: ve.Fields()}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Message, nil
	}

	if binder.IsBindingError(err) {
		return http.StatusBadRequest, err.Error(), nil
	}

	return ErrInternalServerError.Code, ErrInternalServerError.Message, nil
}
