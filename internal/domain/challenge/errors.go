package challenge

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist or has ended.
	ErrSessionNotFound = errors.New("challenge session not found")
	// ErrNoActiveRound indicates a judge call before any round was presented.
	ErrNoActiveRound = errors.New("no active challenge round")
	// ErrInvalidIndex indicates a tile index outside the grid.
	ErrInvalidIndex = errors.New("tile index out of range")
	// ErrInvalidInput indicates an invalid session request.
	ErrInvalidInput = errors.New("invalid challenge input")
	// ErrChallengeCancelled indicates the gate was abandoned before completion.
	ErrChallengeCancelled = errors.New("challenge cancelled")
)
