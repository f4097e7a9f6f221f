package domain

import "errors"

// Engine-boundary errors. ErrNotFound deliberately covers both "alert
// missing or inactive" and "no preference row for this user" so callers
// cannot probe which half of the lookup failed.
var (
	ErrNotFound           = errors.New("alert not found or not accessible")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnsupportedChannel = errors.New("unsupported delivery type")
	ErrInvalidAlert       = errors.New("invalid alert")
)
