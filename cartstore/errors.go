// cartservice/cartstore/errors.go

package cartstore

import "errors"

var (
	// ErrInvalidArgument rejects a request before any backend access: empty
	// owner or product id, or a non-positive quantity.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorruptRecord marks stored bytes that do not decode into a valid
	// cart. It is deliberately distinct from "no cart": an unreadable record
	// is surfaced instead of silently discarding a user's existing items.
	ErrCorruptRecord = errors.New("corrupt cart record")

	// ErrBackendUnavailable marks a backend that could not be reached or
	// timed out. The core never retries these; a blind retry of the
	// read-merge-write sequence could apply a quantity increment twice.
	ErrBackendUnavailable = errors.New("cart backend unavailable")
)
