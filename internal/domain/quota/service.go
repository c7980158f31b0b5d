package quota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/repository"
)

// Service owns the single-writer quota state. Readers use Snapshot or Usage.
type Service struct {
	repo     Repository
	clock    clock.Clock
	defaults Defaults
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	loaded  bool
	observe func(Usage)
}

// Defaults configure the state created when nothing is persisted yet.
type Defaults struct {
	Tier  Tier
	Limit int
}

// NewService creates a quota service.
func NewService(repo Repository, clk clock.Clock, defaults Defaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if defaults.Tier == "" {
		defaults.Tier = TierFree
	}
	return &Service{
		repo:     repo,
		clock:    clk,
		defaults: defaults,
		logger:   logger,
	}
}

// OnChange registers fn to be called with the usage after every change.
func (s *Service) OnChange(fn func(Usage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observe = fn
}

// Load reads the persisted state, creating it from the defaults when
// missing, and applies the daily reset.
func (s *Service) Load(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Service) loadLocked(ctx context.Context) (State, error) {
	now := s.clock.Now()
	stored, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.state = NewState(s.defaults.Tier, s.defaults.Limit, now)
		s.loaded = true
		if err := s.repo.Save(ctx, s.state); err != nil {
			return s.state, fmt.Errorf("saving quota state: %w", err)
		}
		s.notify()
		return s.state, nil
	case err != nil:
		return State{}, fmt.Errorf("loading quota state: %w", err)
	}

	s.state = *stored
	if s.state.Limit <= 0 {
		s.state.Limit = DefaultLimit(s.state.Tier)
	}
	s.loaded = true
	if err := s.resetLocked(ctx); err != nil {
		return s.state, err
	}
	s.notify()
	return s.state, nil
}

// Refresh applies the daily reset against the current date, persisting the
// state when a rollover happened.
func (s *Service) Refresh(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return State{}, err
	}
	if err := s.resetLocked(ctx); err != nil {
		return s.state, err
	}
	return s.state, nil
}

// Remaining reports today's remaining capacity. When only persisting a
// rollover fails, the in-memory figure is returned with the error.
func (s *Service) Remaining(ctx context.Context) (int, error) {
	state, err := s.Refresh(ctx)
	if err != nil && state.LastResetDate == "" {
		return 0, err
	}
	return Remaining(state), err
}

// Reserve runs the pre-flight capacity check for requested attempts.
func (s *Service) Reserve(ctx context.Context, requested int) (Reservation, error) {
	state, err := s.Refresh(ctx)
	if err != nil {
		return Reservation{}, err
	}
	return Reserve(state, requested)
}

// RecordSuccess counts one successful attempt and persists the result. The
// in-memory count moves even when persisting fails.
func (s *Service) RecordSuccess(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return State{}, err
	}

	s.state = RecordSuccess(s.state)
	s.notify()
	if err := s.repo.Save(ctx, s.state); err != nil {
		return s.state, fmt.Errorf("saving quota state: %w", err)
	}
	return s.state, nil
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Usage returns the current state in display form.
func (s *Service) Usage() Usage {
	return UsageOf(s.Snapshot())
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	_, err := s.loadLocked(ctx)
	return err
}

func (s *Service) resetLocked(ctx context.Context) error {
	next, reset := ApplyDailyReset(s.state, s.clock.Now())
	if !reset {
		return nil
	}
	s.logger.Info("daily quota reset", "date", next.LastResetDate, "previous_count", s.state.Count)
	s.state = next
	s.notify()
	if err := s.repo.Save(ctx, s.state); err != nil {
		return fmt.Errorf("saving quota state: %w", err)
	}
	return nil
}

func (s *Service) notify() {
	if s.observe != nil {
		s.observe(UsageOf(s.state))
	}
}
