// Package domainerrors carries typed error codes across service boundaries so
// handlers can map outcomes to HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the domain outcome an error represents.
type Code string

const (
	CodeInvalidInput      Code = "invalid_input"
	CodeNumberTaken       Code = "number_taken"
	CodeContactRegistered Code = "contact_registered"
	CodeDuplicatePending  Code = "duplicate_pending"
	CodeBelowMinimum      Code = "below_minimum"
	CodeInsufficientPool  Code = "insufficient_pool"
	CodeInvalidState      Code = "invalid_state"
	CodeNoParticipants    Code = "no_participants"
	CodeAlreadyDrawn      Code = "already_drawn"
	CodeNotFound          Code = "not_found"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeUnavailable       Code = "unavailable"
	CodeInternal          Code = "internal"
)

// Error is a coded domain error. The optional meta map carries structured
// payload for the caller (conflicting rows, identifiers) without widening the
// error interface.
type Error struct {
	Code    Code
	Message string
	Err     error
	meta    map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	for e := err; e != nil; {
		if errors.As(e, &de) {
			if de.Code == code {
				return true
			}
			e = de.Err
			continue
		}
		return false
	}
	return false
}

// Is is an alias of HasCode, matching the errors.Is call shape.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when err is
// not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or a generic one.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// Add attaches a metadata entry to a coded error and returns it. A non-coded
// error is returned unchanged.
func Add(err error, key string, value any) error {
	var de *Error
	if !errors.As(err, &de) {
		return err
	}
	if de.meta == nil {
		de.meta = make(map[string]any)
	}
	de.meta[key] = value
	return err
}

// Load reads a metadata entry from anywhere in the error chain.
func Load(err error, key string) (any, bool) {
	var de *Error
	if !errors.As(err, &de) {
		return nil, false
	}
	if v, ok := de.meta[key]; ok {
		return v, true
	}
	return Load(de.Err, key)
}

// ToHTTPStatus maps a code to the HTTP status the transport layer responds
// with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBelowMinimum:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNumberTaken, CodeContactRegistered, CodeDuplicatePending, CodeInvalidState, CodeAlreadyDrawn, CodeInsufficientPool:
		return http.StatusConflict
	case CodeNoParticipants:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
