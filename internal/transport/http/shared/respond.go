// Package shared holds the response helpers every handler uses, so error
// bodies and content types stay uniform across the API.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "rifa/pkg/domain-errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError maps a coded domain error onto its HTTP status and a uniform
// error body. Conflicting participant rows attached to the error travel in
// the details field so clients can offer recovery.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	}
	if details, ok := dErrors.Load(err, "participants"); ok {
		body.Details = details
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
