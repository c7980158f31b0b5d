package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/domain/quota"
	"github.com/ganot/quotagate/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, generation.ErrRunActive):
		return &APIError{Code: "RUN_ACTIVE", Message: "a generation run is already in progress", RecoveryHint: "Wait for it to finish or call cancel_generation_run"}
	case errors.Is(err, generation.ErrNoActiveRun):
		return &APIError{Code: "NO_ACTIVE_RUN", Message: "no generation run is in progress"}
	case errors.Is(err, generation.ErrChallengeUnavailable):
		return &APIError{Code: "CHALLENGE_UNAVAILABLE", Message: "challenge rounds requested but no challenge is configured", RecoveryHint: "Retry with challenge_rounds 0"}
	case errors.Is(err, generation.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "count must be at least 1 and challenge_rounds not negative"}
	case errors.Is(err, challenge.ErrSessionNotFound):
		return &APIError{Code: "CHALLENGE_NOT_FOUND", Message: "challenge session not found", RecoveryHint: "Check get_generation_status for the pending session"}
	case errors.Is(err, challenge.ErrNoActiveRound):
		return &APIError{Code: "NO_ACTIVE_ROUND", Message: "no round is being presented", RecoveryHint: "Call get_challenge_round first"}
	case errors.Is(err, challenge.ErrInvalidIndex):
		return &APIError{Code: "INVALID_INDEX", Message: "tile index must be between 0 and 5"}
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "limit and offset must not be negative and type must be a known activity type"}
	case errors.Is(err, challenge.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid challenge input"}
	case errors.Is(err, quota.ErrQuotaExceeded):
		return &APIError{Code: "QUOTA_EXCEEDED", Message: "daily quota reached", RecoveryHint: "Try again after the daily reset"}
	case errors.Is(err, account.ErrNothingToExport):
		return &APIError{Code: "NOTHING_TO_EXPORT", Message: "no accounts to export"}
	case errors.Is(err, account.ErrUnknownFormat):
		return &APIError{Code: "UNKNOWN_FORMAT", Message: "unknown export format", RecoveryHint: "Use txt, csv, json or ram"}
	case errors.Is(err, repository.ErrUnavailable):
		return &APIError{Code: "STORE_UNAVAILABLE", Message: "state store unavailable", RecoveryHint: "Retry later"}
	default:
		return nil
	}
}

// toolError converts err into the error a tool handler returns. Mapped
// errors carry their code; anything else is reported as INTERNAL.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return &APIError{Code: "INTERNAL", Message: err.Error()}
}

var errNoPendingChallenge = &APIError{
	Code:         "NO_PENDING_CHALLENGE",
	Message:      "no challenge is waiting for an answer",
	RecoveryHint: "Start a run with challenge_rounds > 0 or pass session_id",
}
