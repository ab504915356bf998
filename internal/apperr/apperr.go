// Package apperr defines the closed error taxonomy used by all handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Invalid
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, msg string) error { return &Error{Kind: kind, Msg: msg} }

func Ef(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from an error chain. Unknown errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }

func statusFor(kind Kind) int {
	switch kind {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Invalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the JSON error body for err. Internal errors get a generic
// message so store details never leak to the client.
func Respond(c *gin.Context, err error) {
	kind := KindOf(err)
	msg := "internal error"
	if kind != Internal {
		var e *Error
		if errors.As(err, &e) {
			msg = e.Msg
		}
	}
	c.JSON(statusFor(kind), gin.H{"error": msg})
}

// Abort is Respond plus aborting the handler chain, for use in middleware.
func Abort(c *gin.Context, err error) {
	Respond(c, err)
	c.Abort()
}
