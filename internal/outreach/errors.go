package outreach

import "errors"

var (
	// ErrOverrideForbidden is returned when the non-production send override
	// is requested in a production deployment. Reaching this is a
	// misconfiguration, not a recoverable runtime condition.
	ErrOverrideForbidden = errors.New("send override is not available in production")

	// ErrNoPendingConfirmation is returned when an edit, send, or cancel is
	// attempted with no confirmation open.
	ErrNoPendingConfirmation = errors.New("no outreach confirmation is open")

	// ErrSendInFlight signals a duplicate send for a client whose previous
	// send has not resolved. Callers treat it as a disabled trigger, not a
	// user-facing error.
	ErrSendInFlight = errors.New("a send for this client is already in flight")
)
