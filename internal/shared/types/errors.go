package types

import "errors"

// Error taxonomy for catalog and installation operations.
// NotFound and Conflict surface synchronously; the rest surface through an
// operation's terminal state.
var (
	// ErrNotFound indicates an absent package, version, or operation.
	// Recoverable and expected; callers treat it as "optional miss".
	ErrNotFound = errors.New("not found")

	// ErrIntegrity indicates a checksum mismatch after download.
	// The payload is never applied.
	ErrIntegrity = errors.New("integrity verification failed")

	// ErrTransport indicates a network or I/O fault during fetch.
	// Callers may retry by issuing a new install request.
	ErrTransport = errors.New("transport failure")

	// ErrApply indicates a failure while applying a fully verified payload.
	// The previously installed state is preserved.
	ErrApply = errors.New("package apply failed")

	// ErrConflict indicates a duplicate active install for the same
	// package identity. The request is rejected before registration.
	ErrConflict = errors.New("install already in progress")

	// ErrCancelled indicates cooperative cancellation of an operation.
	ErrCancelled = errors.New("operation cancelled")
)
