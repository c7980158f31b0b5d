package generation

import (
	"context"

	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/quota"
)

// ProvisioningClient performs one provisioning attempt. A returned error is a
// fault; a Result with Success false is an ordinary failure.
type ProvisioningClient interface {
	Attempt(ctx context.Context, attempt Attempt) (Result, error)
}

// QuotaTracker is the single-writer daily quota.
type QuotaTracker interface {
	Remaining(ctx context.Context) (int, error)
	Reserve(ctx context.Context, requested int) (quota.Reservation, error)
	RecordSuccess(ctx context.Context) (quota.State, error)
}

// AccountStore receives the records of successful attempts.
type AccountStore interface {
	Append(ctx context.Context, rec account.Record) error
}

// ChallengeGate blocks until a human passes the given number of rounds.
type ChallengeGate interface {
	Pass(ctx context.Context, rounds int) error
}

// ActivityLogger records run events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.Entry) error
}

// Observer is notified of outcomes and finished runs.
type Observer interface {
	ObserveOutcome(outcome Outcome)
	ObserveRun(summary Summary)
}
