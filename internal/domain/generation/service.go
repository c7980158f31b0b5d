package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ganot/quotagate/internal/domain/activity"
)

// DefaultHistory is the number of outcomes kept for status reads.
const DefaultHistory = 50

// Service hosts runs for the entry-point surface. It consumes each run on its
// own goroutine, keeps a bounded outcome log and records activity.
type Service struct {
	orch     *Orchestrator
	activity ActivityLogger
	observer Observer
	history  int
	logger   *slog.Logger

	mu      sync.Mutex
	current *Run
	done    chan struct{}
	last    *Summary
	recent  []Outcome
}

// NewService creates a generation service. activityLog and observer may be nil.
func NewService(orch *Orchestrator, activityLog ActivityLogger, observer Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		orch:     orch,
		activity: activityLog,
		observer: observer,
		history:  DefaultHistory,
		logger:   logger,
	}
}

// StartGenerationRun starts a run and consumes it in the background.
func (s *Service) StartGenerationRun(ctx context.Context, req Request) (RunInfo, error) {
	run, err := s.orch.Start(ctx, req)
	if err != nil {
		return RunInfo{}, err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.current = run
	s.done = done
	s.recent = nil
	s.mu.Unlock()

	res := run.Reservation()
	info := RunInfo{
		RunID:           run.ID(),
		Requested:       req.Count,
		Password:        run.Request().Password,
		ChallengeRounds: req.ChallengeRounds,
		Allowed:         res.Allowed,
		Granted:         res.Granted,
	}

	bg := context.WithoutCancel(ctx)
	s.record(bg, run.ID(), activity.TypeRunStarted,
		fmt.Sprintf("Run started: %d requested, %d allowed today", req.Count, res.Allowed), info)
	if req.ChallengeRounds > 0 {
		s.record(bg, run.ID(), activity.TypeChallengeRequired,
			fmt.Sprintf("Challenge of %d rounds required", req.ChallengeRounds), nil)
	}

	go s.consume(bg, run, done)
	return info, nil
}

// CancelGenerationRun requests cancellation of the active run.
func (s *Service) CancelGenerationRun() error {
	s.mu.Lock()
	run := s.current
	s.mu.Unlock()
	if run == nil {
		return ErrNoActiveRun
	}
	run.Cancel()
	return nil
}

// Status returns the current run, or the last finished one, with the most
// recent outcomes.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{Recent: append([]Outcome{}, s.recent...)}
	switch {
	case s.current != nil:
		summary := s.current.Summary()
		status.Active = true
		status.Summary = &summary
	case s.last != nil:
		summary := *s.last
		status.Summary = &summary
	}
	return status
}

// Wait blocks until the current run has been fully consumed or ctx ends. It
// returns immediately when no run is active.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) consume(ctx context.Context, run *Run, done chan struct{}) {
	defer close(done)

	for outcome := range run.Outcomes() {
		s.mu.Lock()
		s.recent = append(s.recent, outcome)
		if len(s.recent) > s.history {
			s.recent = s.recent[len(s.recent)-s.history:]
		}
		s.mu.Unlock()

		if s.observer != nil {
			s.observer.ObserveOutcome(outcome)
		}
		typ, summary := describe(outcome)
		s.record(ctx, run.ID(), typ, summary, outcome)
	}

	summary := run.Summary()
	if s.observer != nil {
		s.observer.ObserveRun(summary)
	}
	s.record(ctx, run.ID(), activity.TypeRunFinished,
		fmt.Sprintf("Run finished: %d succeeded, %d failed", summary.Succeeded, summary.Failed), summary)

	s.mu.Lock()
	s.last = &summary
	if s.current == run {
		s.current = nil
	}
	s.mu.Unlock()
}

func (s *Service) record(ctx context.Context, runID string, typ activity.Type, summary string, details any) {
	if s.activity == nil {
		return
	}
	entry := &activity.Entry{RunID: runID, Type: typ, Summary: summary}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = string(raw)
		}
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("failed to log activity", "run_id", runID, "type", typ, "error", err)
	}
}

func describe(o Outcome) (activity.Type, string) {
	switch o.Kind {
	case OutcomeSuccess:
		return activity.TypeAttemptSucceeded, fmt.Sprintf("Attempt %d: created %s", o.Attempt, o.Username)
	case OutcomeFailure:
		return activity.TypeAttemptFailed, fmt.Sprintf("Attempt %d: failed: %s", o.Attempt, o.Reason)
	case OutcomeFault:
		return activity.TypeAttemptFaulted, fmt.Sprintf("Attempt %d: error: %s", o.Attempt, o.Reason)
	case OutcomeQuotaExceeded:
		return activity.TypeQuotaExceeded, "Daily quota reached"
	default:
		return activity.TypeChallengeAborted, "Challenge cancelled"
	}
}
