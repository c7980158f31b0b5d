package generation

import "errors"

var (
	// ErrRunActive indicates a run is already in progress.
	ErrRunActive = errors.New("generation run already in progress")
	// ErrNoActiveRun indicates there is no run to cancel.
	ErrNoActiveRun = errors.New("no active generation run")
	// ErrInvalidInput indicates an invalid run request.
	ErrInvalidInput = errors.New("invalid generation input")
	// ErrChallengeUnavailable indicates challenge rounds were requested
	// without a challenge gate.
	ErrChallengeUnavailable = errors.New("challenge gate not configured")
)
