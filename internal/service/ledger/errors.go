package ledger

import "errors"

var (
	ErrZoneNotFound = errors.New("zone not found")
	ErrZoneClosed   = errors.New("zone is closed")
	ErrZoneFull     = errors.New("no available slots")
)
