// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors are returned by use cases and
// gateway stages and mapped to HTTP status codes in exactly one place (httputil).
package errors

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Every error surfaced to a client wraps exactly one of them.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated principal doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates the caller exceeded the route's request threshold.
	ErrRateLimited = errors.New("rate limited")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message and keeps err in the chain, so
// Wrap(ErrNotFound, "api key not found") still matches ErrNotFound.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
