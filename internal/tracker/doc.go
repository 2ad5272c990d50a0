// Package tracker maintains the registry of in-flight installation
// operations.
//
// Each operation carries its own status, progress, and cancellation flag
// in a single entity. The tracker enforces at most one active operation
// per package identity: a duplicate Register is rejected with
// types.ErrConflict rather than superseding the running install.
//
// Cancellation is cooperative. RequestCancel only flips a flag; the
// coordinator polls it between fetch and apply steps and performs the
// terminal transition itself. Registration and removal are mutex-guarded;
// progress and cancellation reads are atomic and lock-free.
package tracker
