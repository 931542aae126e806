// Package errors classifies failures so callers can tell a missing record
// from a download client that did not answer.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the class of a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBadRequest
	KindConflict
	// KindUnavailable marks a collaborator that could not be reached in time.
	// The processor queues such grabs for a later attempt.
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindNotFound:    "not found",
	KindBadRequest:  "bad request",
	KindConflict:    "conflict",
	KindUnavailable: "unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a classified failure, optionally wrapping its cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func BadRequest(message string) error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unavailable wraps cause, typically a deadline or a refused connection.
func Unavailable(message string, cause error) error {
	return &Error{Kind: KindUnavailable, Message: message, Err: cause}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
func IsBadRequest(err error) bool  { return KindOf(err) == KindBadRequest }
func IsConflict(err error) bool    { return KindOf(err) == KindConflict }
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

// IsDuplicateError matches unique-constraint violations from sqlite and postgres.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "duplicate key")
}
