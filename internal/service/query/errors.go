package query

import "errors"

var (
	ErrGateNotFound         = errors.New("gate not found")
	ErrZoneNotFound         = errors.New("zone not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
