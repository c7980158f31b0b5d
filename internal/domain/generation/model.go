package generation

import "time"

// OutcomeKind classifies one unit of work emitted by a run.
type OutcomeKind string

const (
	// OutcomeSuccess is a provisioning attempt that succeeded.
	OutcomeSuccess OutcomeKind = "SUCCESS"
	// OutcomeFailure is a provisioning attempt the client reported as failed.
	OutcomeFailure OutcomeKind = "FAILURE"
	// OutcomeFault is a provisioning attempt whose call returned an error.
	OutcomeFault OutcomeKind = "FAULT"
	// OutcomeQuotaExceeded ends a run when no daily capacity remains.
	OutcomeQuotaExceeded OutcomeKind = "QUOTA_EXCEEDED"
	// OutcomeChallengeCancelled ends a run whose challenge was abandoned.
	OutcomeChallengeCancelled OutcomeKind = "CHALLENGE_CANCELLED"
)

// Terminal reports whether the kind ends the run.
func (k OutcomeKind) Terminal() bool {
	return k == OutcomeQuotaExceeded || k == OutcomeChallengeCancelled
}

// Outcome is the discrete result of one unit of work in a run.
type Outcome struct {
	RunID string      `json:"run_id"`
	Kind  OutcomeKind `json:"kind"`
	// Attempt is the 1-based attempt number; zero for outcomes emitted
	// before an attempt was made.
	Attempt  int       `json:"attempt"`
	Username string    `json:"username,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Request describes a generation run.
type Request struct {
	Count int
	// Password is used for every account of the run; generated when empty.
	Password        string
	BirthYear       string
	ChallengeRounds int
}

// Attempt is the input of one provisioning call.
type Attempt struct {
	Username  string
	Password  string
	BirthYear string
}

// Result is the reply of a provisioning call that did not fault.
type Result struct {
	Success bool
	// Username is the name the account was created under; the requested
	// username is used when empty.
	Username string
	Email    *string
	Secret   *string
	Reason   string
}

// Summary is the running tally of a run.
type Summary struct {
	RunID      string      `json:"run_id"`
	Requested  int         `json:"requested"`
	Completed  int         `json:"completed"`
	Succeeded  int         `json:"succeeded"`
	Failed     int         `json:"failed"`
	Cancelled  bool        `json:"cancelled"`
	Terminal   OutcomeKind `json:"terminal,omitempty"`
	Finished   bool        `json:"finished"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// RunInfo describes a run that was just started.
type RunInfo struct {
	RunID           string `json:"run_id"`
	Requested       int    `json:"requested"`
	Password        string `json:"password"`
	ChallengeRounds int    `json:"challenge_rounds"`
	// Allowed is the quota capacity left when the run started.
	Allowed int  `json:"allowed"`
	Granted bool `json:"granted"`
}

// Status is a read-only view of the current or last run.
type Status struct {
	Active  bool      `json:"active"`
	Summary *Summary  `json:"summary,omitempty"`
	Recent  []Outcome `json:"recent"`
}
