package gapfill

import "errors"

var (
	// ErrMissingProvider is returned when a fetch is attempted without a provider id
	ErrMissingProvider = errors.New("provider id is required")

	// ErrMissingDate is returned when a fetch is attempted without a target date
	ErrMissingDate = errors.New("target date is required")

	// ErrSuperseded is returned when a fetch completes after a newer fetch
	// has been issued; its result is discarded, never applied.
	ErrSuperseded = errors.New("fetch superseded by a newer request")

	// ErrCandidateNotFound is returned when a client id does not match any
	// candidate in the current result set.
	ErrCandidateNotFound = errors.New("candidate not found in current results")
)
