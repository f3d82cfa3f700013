// Package httputil provides the shared JSON response helpers for the read
// and admin APIs.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "gavel/pkg/domain-errors"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError translates a coded error into an HTTP response. Internal and
// unavailable errors omit the description so infrastructure detail never
// leaks to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal && code != dErrors.CodeUnavailable {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.ErrorDescription = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// Decode parses a JSON request body. A false return means the error response
// has already been written.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed JSON body"))
		var zero T
		return zero, false
	}
	return req, true
}
