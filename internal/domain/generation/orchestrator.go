package generation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/random"
	"github.com/google/uuid"
)

// Dependencies are the collaborators an Orchestrator drives.
type Dependencies struct {
	Quota    QuotaTracker
	Accounts AccountStore
	Client   ProvisioningClient
	// Gate may be nil when runs never require a challenge.
	Gate   ChallengeGate
	Random random.Source
}

// Orchestrator sequences provisioning attempts under quota and cancellation
// control. At most one run is active at a time.
type Orchestrator struct {
	deps   Dependencies
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.Mutex
	active *Run
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps Dependencies, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	return &Orchestrator{
		deps:   deps,
		delay:  opts.Delay,
		sleep:  opts.Sleep,
		clock:  opts.Clock,
		logger: logger,
	}
}

// Start begins a run. The run does no work until its Outcomes sequence is
// consumed. Run cancellation is independent of ctx, which only supplies
// values.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Run, error) {
	if req.Count <= 0 || req.ChallengeRounds < 0 {
		return nil, ErrInvalidInput
	}
	if req.ChallengeRounds > 0 && o.deps.Gate == nil {
		return nil, ErrChallengeUnavailable
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, ErrRunActive
	}

	if req.Password == "" {
		req.Password = GeneratePassword(o.deps.Random)
	}

	reservation, err := o.deps.Quota.Reserve(ctx, req.Count)
	if err != nil {
		return nil, fmt.Errorf("checking quota: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &Run{
		id:          uuid.NewString(),
		req:         req,
		reservation: reservation,
		o:           o,
		ctx:         runCtx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	run.summary = Summary{
		RunID:     run.id,
		Requested: req.Count,
		StartedAt: o.clock.Now(),
	}
	o.active = run

	if !reservation.Granted {
		o.logger.Warn("requested count exceeds remaining quota",
			"run_id", run.id, "requested", req.Count, "allowed", reservation.Allowed)
	}
	o.logger.Info("generation run started",
		"run_id", run.id, "requested", req.Count, "challenge_rounds", req.ChallengeRounds)
	return run, nil
}

// Active returns the active run, if any.
func (o *Orchestrator) Active() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

func (o *Orchestrator) release(run *Run) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == run {
		o.active = nil
	}
}
