package schedule

import "errors"

var (
	// ErrInvalidTimestamp is returned when a candidate's proposed start
	// cannot be parsed to a valid date.
	ErrInvalidTimestamp = errors.New("proposed start is not a valid timestamp")

	// ErrUnparseableLink is returned when the deep link does not match the
	// /appointments/doctor/<externalId> pattern.
	ErrUnparseableLink = errors.New("deep link does not contain a provider external id")

	// ErrUnresolvedProvider is returned when the external provider id cannot
	// be resolved to an internal id.
	ErrUnresolvedProvider = errors.New("provider external id could not be resolved")

	// ErrInvalidDateFormat is returned when the target date cannot be
	// normalized to the strict YYYY-MM-DD contract.
	ErrInvalidDateFormat = errors.New("target date does not normalize to YYYY-MM-DD")
)
