package account

import "errors"

var (
	// ErrNothingToExport indicates an export of an empty store.
	ErrNothingToExport = errors.New("no accounts to export")
	// ErrUnknownFormat indicates an unsupported export format.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrInvalidInput indicates an invalid record.
	ErrInvalidInput = errors.New("invalid account input")
)
