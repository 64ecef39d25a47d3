// Package apperrors defines the pipeline's error taxonomy.
// Every stage returns *Error values; callers match on kind with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline error.
type Kind string

const (
	KindInput    Kind = "input"     // Malformed or missing raw input
	KindStore    Kind = "store"     // Relational read/write failure
	KindIndex    Kind = "index"     // Embedding, vector index or mapping failure
	KindNotReady Kind = "not_ready" // Retrieval components not loaded
	KindNoData   Kind = "no_data"   // Valid empty result
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInput    = &Error{Kind: KindInput}
	ErrStore    = &Error{Kind: KindStore}
	ErrIndex    = &Error{Kind: KindIndex}
	ErrNotReady = &Error{Kind: KindNotReady}
	ErrNoData   = &Error{Kind: KindNoData}
)

// Error is a classified pipeline error.
type Error struct {
	Kind    Kind
	Op      string // Operation that failed, e.g. "cleaner.load"
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Kind))
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	msg := strings.Join(parts, ": ")
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

func newError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Input wraps a raw input failure.
func Input(op, message string, cause error) *Error {
	return newError(KindInput, op, message, cause)
}

// Store wraps a relational store failure.
func Store(op, message string, cause error) *Error {
	return newError(KindStore, op, message, cause)
}

// Index wraps an embedding or vector index failure.
func Index(op, message string, cause error) *Error {
	return newError(KindIndex, op, message, cause)
}

// NotReady reports that retrieval components are unavailable.
func NotReady(op, message string, cause error) *Error {
	return newError(KindNotReady, op, message, cause)
}

// NoData reports a valid but empty result.
func NoData(op, message string) *Error {
	return newError(KindNoData, op, message, nil)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsInput reports whether err is a raw input failure.
func IsInput(err error) bool {
	return errors.Is(err, ErrInput)
}

// IsStore reports whether err is a store error.
func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsNoData reports whether err is an empty-but-valid result.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsNotReady reports whether err means the retrieval components are not loaded.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
