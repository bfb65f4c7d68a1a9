// Package apperr defines the error taxonomy shared by every service.
// Domain code raises these; the bus router is the single place that maps
// them onto response envelopes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTimeout is the caller-side outcome of a correlated call whose reply
// never arrived. The gateway maps it to 503.
var ErrTimeout = errors.New("request timeout")

type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

func Validation(details string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "Invalid data provided", Details: details}
}

func Conflict(message, details string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Details: details}
}

func NotFound(resource string) *Error {
	return &Error{Status: http.StatusNotFound, Message: "Record not found", Details: fmt.Sprintf("%s not found!", resource)}
}

// From normalizes any error into an *Error. Unknown errors become an opaque
// 500 so internals never leak onto the wire.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Status: http.StatusInternalServerError, Message: "Something went wrong", Details: err.Error()}
}
