package tickets

import "errors"

var (
	ErrZoneNotFound      = errors.New("zone not found")
	ErrZoneClosed        = errors.New("zone is closed")
	ErrZoneFull          = errors.New("no available slots")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrAlreadyCheckedOut = errors.New("ticket already checked out")

	// ErrDataConsistency means the in-memory admission/release and its
	// write-through did not both complete; the in-memory side has been
	// compensated where possible and the failure logged.
	ErrDataConsistency = errors.New("ledger and store diverged")
)
