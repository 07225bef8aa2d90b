// Package errors classifies failures surfaced by the conversion pipeline.
package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindFormat  Kind = "format"
	KindIO      Kind = "io"
	KindEncode  Kind = "encode"
	KindConfig  Kind = "config"
	KindCancel  Kind = "cancelled"
	KindUnknown Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s:%s]", e.Kind, e.Op)
	if e.Path != "" {
		prefix += " " + e.Path
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap classifies err. An err that is already an *Error is returned as is.
func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// WithPath returns a copy of e tagged with path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}

// PathOf returns the path recorded on the first *Error in err's chain.
func PathOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Path
	}
	return ""
}
