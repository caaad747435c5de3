// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package apperror defines the application error taxonomy shared by
// services and handlers.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindInternal is the fallback for unexpected failures.
	KindInternal Kind = iota
	// KindValidation marks malformed or missing input, detected before
	// any record is created.
	KindValidation
	// KindNotFound marks an absent record, or one owned by another user.
	// Both cases produce the same external signal.
	KindNotFound
	// KindConflict marks operations invalid in the current state, such as
	// verifying an already-verified account.
	KindConflict
	// KindAuthentication marks bad credentials or an invalid, expired or
	// consumed one-time code.
	KindAuthentication
	// KindUnverifiedAccount marks correct credentials on an account that
	// has not completed email verification.
	KindUnverifiedAccount
	// KindUpstream marks a failed lookup provider or notification call.
	KindUpstream
)

// Error carries a kind alongside a caller-facing message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error with the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// NotFound creates a not-found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Authentication creates an authentication error.
func Authentication(message string) *Error {
	return New(KindAuthentication, message)
}

// UnverifiedAccount creates an unverified-account error.
func UnverifiedAccount(message string) *Error {
	return New(KindUnverifiedAccount, message)
}

// Upstream creates an upstream error wrapping the provider failure.
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

// Internal creates an internal error wrapping the cause.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf extracts the kind from an error chain. Unclassified errors
// report KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of a classified error, or
// a generic message for unclassified ones.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}
