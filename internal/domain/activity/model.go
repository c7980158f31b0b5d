package activity

import "time"

// Type represents the type of activity event
type Type string

const (
	TypeRunStarted        Type = "run_started"
	TypeRunFinished       Type = "run_finished"
	TypeAttemptSucceeded  Type = "attempt_succeeded"
	TypeAttemptFailed     Type = "attempt_failed"
	TypeAttemptFaulted    Type = "attempt_faulted"
	TypeQuotaExceeded     Type = "quota_exceeded"
	TypeChallengeRequired Type = "challenge_required"
	TypeChallengeAborted  Type = "challenge_cancelled"
)

// Entry represents an event in the activity log
type Entry struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}
