// Package pipelineerr names the pipeline's recoverable error conditions as
// sentinel errors. The call sites attach them to their log entries so the
// condition can be matched with errors.Is; no call site branches on them.
package pipelineerr

import "errors"

var (
	// ErrMalformedMessage marks a bus message that failed to parse or
	// validate against its schema. The message is dropped; the offset still
	// progresses (trade side) or is simply never tracked as in-flight
	// (market side).
	ErrMalformedMessage = errors.New("pipelineerr: malformed message")

	// ErrDuplicateKey marks a store write that lost a race to a concurrent
	// idempotent writer. Always swallowed, never surfaced to a caller.
	ErrDuplicateKey = errors.New("pipelineerr: duplicate key")

	// ErrQueryUnavailable marks a downstream range-query RPC failure. The
	// caller (C3) is expected to fall back to an empty result rather than
	// propagate this.
	ErrQueryUnavailable = errors.New("pipelineerr: query unavailable")

	// ErrPartialBulkFailure marks a bulk write that succeeded for some
	// operations and failed for others.
	ErrPartialBulkFailure = errors.New("pipelineerr: partial bulk failure")
)
