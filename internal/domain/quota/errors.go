package quota

import "errors"

var (
	// ErrQuotaExceeded indicates no capacity remains today.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	// ErrInvalidInput indicates an invalid quota request.
	ErrInvalidInput = errors.New("invalid quota input")
	// ErrUnknownTier indicates an unrecognised tier name.
	ErrUnknownTier = errors.New("unknown tier")
)
