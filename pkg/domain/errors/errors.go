// Package errors declares the error taxonomy of the metadata core.
//
// Storage layers wrap these sentinels into typed errors carrying detail
// (see dberrors/postgres); callers branch with errors.Is against the
// sentinels only.
package errors

import "errors"

var (
	// referenced entity or edge is absent.
	ErrMissing = errors.New("missing")

	// the operation would break an invariant; e.g. an everywhere-delete
	// blocked by a queued plugin job, or an attach without a global record.
	ErrConflict = errors.New("conflict")

	// malformed identifiers or missing required fields. Not retryable.
	ErrInvalid = errors.New("invalid")

	// an external collaborator (imaging archive, content store) is
	// unreachable. Always retryable by the caller.
	ErrUnavailable = errors.New("unavailable")
)
