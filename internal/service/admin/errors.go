package admin

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrCategoryNotFound = errors.New("category not found")
	ErrZoneNotFound     = errors.New("zone not found")
	ErrWindowNotFound   = errors.New("window not found")
)
