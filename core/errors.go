// Package core provides the error types shared across the discovery modules.
//
// Error handling follows Go best practices with wrapped errors for context
// preservation. All errors defined here can be matched with errors.Is() and
// errors.As().
package core

import (
	"errors"
	"fmt"
)

// Iteration-time errors. These are misuse signals local to one cursor call;
// they never invalidate the remaining cursor state.
var (
	// ErrExhausted indicates that Next was called with no resource names
	// remaining anywhere in the sequence.
	ErrExhausted = errors.New("resource sequence exhausted")

	// ErrStaleCursor indicates that Open or Remove was called without a
	// valid preceding Next result: before the first Next, after a failed
	// Next, or after the cursor advanced past the finder that produced the
	// last name.
	ErrStaleCursor = errors.New("no current resource")

	// ErrRemoveUnsupported indicates that Remove was requested on a
	// read-only finder.
	ErrRemoveUnsupported = errors.New("remove not supported")

	// ErrPermission indicates that a location provider replacement was
	// rejected because the host sealed the provider.
	ErrPermission = errors.New("location provider replacement denied")
)

// DiscoveryError wraps a host-level failure that occurred while locating or
// constructing finders for a namespace. It is fatal to the discovery pass
// that produced it: no partial cursor is exposed.
type DiscoveryError struct {
	Namespace string // slash-separated namespace path being resolved
	Err       error  // the underlying failure
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for namespace %q: %v", e.Namespace, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NewDiscoveryError creates a DiscoveryError for a failed namespace lookup.
func NewDiscoveryError(namespace string, err error) *DiscoveryError {
	return &DiscoveryError{Namespace: namespace, Err: err}
}

// IsDiscoveryError checks if an error is a DiscoveryError or contains one in
// its chain.
func IsDiscoveryError(err error) bool {
	var de *DiscoveryError
	return errors.As(err, &de)
}

// LocationError wraps a raw location string that could not be parsed or
// repaired into a canonical identifier. It is fatal to the discovery pass: a
// broken identifier usually means a broken search path rather than a
// skippable entry.
type LocationError struct {
	Raw string // the offending raw location string
	Err error  // the parse failure
}

// Error implements the error interface.
func (e *LocationError) Error() string {
	return fmt.Sprintf("malformed location %q: %v", e.Raw, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *LocationError) Unwrap() error {
	return e.Err
}

// NewLocationError creates a LocationError for an unparseable raw location.
func NewLocationError(raw string, err error) *LocationError {
	return &LocationError{Raw: raw, Err: err}
}

// IsLocationError checks if an error is a LocationError or contains one in
// its chain.
func IsLocationError(err error) bool {
	var le *LocationError
	return errors.As(err, &le)
}

// SchemeError indicates that a canonical identifier's scheme has no
// registered factory. It is fatal to the discovery pass: silently skipping
// the location would silently under-report resources.
type SchemeError struct {
	Scheme   string // the lowercase scheme token with no registered factory
	Location string // the full canonical identifier, for diagnosis
}

// Error implements the error interface.
func (e *SchemeError) Error() string {
	return fmt.Sprintf("scheme %q has no registered finder factory (location %q)", e.Scheme, e.Location)
}

// NewSchemeError creates a SchemeError naming the unregistered scheme and
// the identifier that carried it.
func NewSchemeError(scheme, location string) *SchemeError {
	return &SchemeError{Scheme: scheme, Location: location}
}

// IsSchemeError checks if an error is a SchemeError or contains one in its
// chain.
func IsSchemeError(err error) bool {
	var se *SchemeError
	return errors.As(err, &se)
}
