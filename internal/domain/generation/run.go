package generation

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/quota"
)

// Run is one invocation of the orchestrator. Its outcome sequence can be
// consumed once; a finished or cancelled run cannot be resumed.
type Run struct {
	id          string
	req         Request
	reservation quota.Reservation
	o           *Orchestrator

	ctx    context.Context
	cancel context.CancelFunc

	started   atomic.Bool
	cancelled atomic.Bool

	mu       sync.Mutex
	summary  Summary
	done     chan struct{}
	doneOnce sync.Once
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Request returns the request the run executes, with the password filled in.
func (r *Run) Request() Request { return r.req }

// Reservation returns the pre-flight quota check made at start.
func (r *Run) Reservation() quota.Reservation { return r.reservation }

// Cancel requests cooperative cancellation. It is checked before every
// attempt and after every suspension; an in-flight provisioning call is left
// to finish and its result discarded.
func (r *Run) Cancel() {
	if r.cancelled.Swap(true) {
		return
	}
	r.cancel()
	r.o.logger.Info("generation run cancel requested", "run_id", r.id)
	if !r.started.Load() {
		r.finish()
	}
}

// Done is closed once the run has finished or was cancelled before it began.
func (r *Run) Done() <-chan struct{} { return r.done }

// Cancelled reports whether cancellation was requested.
func (r *Run) Cancelled() bool { return r.cancelled.Load() }

// Summary returns a snapshot of the run's tally.
func (r *Run) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.Cancelled = r.cancelled.Load()
	return s
}

// Outcomes returns the run's lazy outcome sequence. The work of each attempt
// happens while the consumer pulls. Stopping iteration early cancels the run.
// Only the first iteration yields anything.
func (r *Run) Outcomes() iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		if !r.started.CompareAndSwap(false, true) {
			return
		}
		defer r.finish()
		if r.cancelled.Load() {
			return
		}
		r.execute(yield)
	}
}

func (r *Run) execute(yield func(Outcome) bool) {
	o := r.o
	for i := 0; i < r.req.Count; i++ {
		if r.cancelled.Load() {
			return
		}

		remaining, err := o.deps.Quota.Remaining(r.ctx)
		if err != nil {
			o.logger.Warn("quota refresh failed", "run_id", r.id, "error", err)
		}
		if remaining <= 0 {
			r.emit(yield, Outcome{Kind: OutcomeQuotaExceeded, Reason: quota.ErrQuotaExceeded.Error()})
			return
		}

		if i == 0 && r.req.ChallengeRounds > 0 {
			if err := o.deps.Gate.Pass(r.ctx, r.req.ChallengeRounds); err != nil {
				o.logger.Info("challenge not passed", "run_id", r.id, "error", err)
				r.cancelled.Store(true)
				r.emit(yield, Outcome{Kind: OutcomeChallengeCancelled, Reason: err.Error()})
				return
			}
			if r.cancelled.Load() {
				return
			}
		}

		outcome, ok := r.attempt(i + 1)
		if !ok {
			return
		}
		if !r.emit(yield, outcome) {
			r.Cancel()
			return
		}

		if i < r.req.Count-1 {
			if err := o.sleep(r.ctx, o.delay); err != nil || r.cancelled.Load() {
				return
			}
		}
	}
}

// attempt performs one provisioning call and its bookkeeping. It reports
// false when the run was cancelled while the call was in flight.
func (r *Run) attempt(n int) (Outcome, bool) {
	o := r.o
	username := GenerateUsername(o.deps.Random)
	o.logger.Debug("provisioning attempt", "run_id", r.id, "attempt", n, "username", username)

	// The call is not aborted by Cancel; only its result is discarded.
	callCtx := context.WithoutCancel(r.ctx)
	result, err := o.deps.Client.Attempt(callCtx, Attempt{
		Username:  username,
		Password:  r.req.Password,
		BirthYear: r.req.BirthYear,
	})
	if r.cancelled.Load() {
		o.logger.Info("discarding attempt result after cancel", "run_id", r.id, "attempt", n)
		return Outcome{}, false
	}

	outcome := Outcome{Attempt: n, Username: username}
	switch {
	case err != nil:
		outcome.Kind = OutcomeFault
		outcome.Reason = err.Error()
	case !result.Success:
		outcome.Kind = OutcomeFailure
		outcome.Reason = result.Reason
	default:
		if result.Username != "" {
			outcome.Username = result.Username
		}
		outcome.Kind = OutcomeSuccess
		outcome.Detail = r.bookSuccess(callCtx, outcome.Username, result)
	}
	return outcome, true
}

// bookSuccess appends the account and counts it against the quota. Storage
// errors do not undo the success; they are returned as a detail string.
func (r *Run) bookSuccess(ctx context.Context, username string, result Result) string {
	o := r.o
	var problems []error

	rec := account.Record{
		Username:  username,
		Password:  r.req.Password,
		Email:     result.Email,
		Secret:    result.Secret,
		CreatedAt: o.clock.Now().UTC(),
	}
	if err := o.deps.Accounts.Append(ctx, rec); err != nil {
		o.logger.Error("failed to persist account", "run_id", r.id, "username", username, "error", err)
		problems = append(problems, err)
	}
	if _, err := o.deps.Quota.RecordSuccess(ctx); err != nil {
		o.logger.Error("failed to persist quota", "run_id", r.id, "error", err)
		problems = append(problems, err)
	}

	if len(problems) == 0 {
		return ""
	}
	return strings.ReplaceAll(errors.Join(problems...).Error(), "\n", "; ")
}

func (r *Run) emit(yield func(Outcome) bool, outcome Outcome) bool {
	outcome.RunID = r.id
	outcome.At = r.o.clock.Now()

	r.mu.Lock()
	switch outcome.Kind {
	case OutcomeSuccess:
		r.summary.Completed++
		r.summary.Succeeded++
	case OutcomeFailure, OutcomeFault:
		r.summary.Completed++
		r.summary.Failed++
	default:
		r.summary.Terminal = outcome.Kind
	}
	r.mu.Unlock()

	return yield(outcome)
}

func (r *Run) finish() {
	r.doneOnce.Do(func() {
		now := r.o.clock.Now()
		r.mu.Lock()
		r.summary.Finished = true
		r.summary.FinishedAt = &now
		r.mu.Unlock()

		r.cancel()
		r.o.release(r)
		close(r.done)
		s := r.Summary()
		r.o.logger.Info("generation run finished",
			"run_id", r.id, "succeeded", s.Succeeded, "failed", s.Failed, "cancelled", s.Cancelled)
	})
}
