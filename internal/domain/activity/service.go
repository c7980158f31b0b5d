package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/ganot/quotagate/internal/clock"
)

const (
	// DefaultLimit applies when a listing does not set one.
	DefaultLimit = 20
	// MaxLimit caps a single listing.
	MaxLimit = 200
)

// Types lists every activity type a run writes.
var Types = []Type{
	TypeRunStarted, TypeRunFinished,
	TypeAttemptSucceeded, TypeAttemptFailed, TypeAttemptFaulted,
	TypeQuotaExceeded, TypeChallengeRequired, TypeChallengeAborted,
}

// Service records run events and lists them newest first.
type Service struct {
	repo   Repository
	clock  clock.Clock
	logger *slog.Logger
}

// NewService creates an activity service stamping entries with clk.
func NewService(repo Repository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, clock: clk, logger: logger}
}

// LogActivity stores entry, stamping CreatedAt when unset. Entries need a
// known type and a run id.
func (s *Service) LogActivity(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.RunID == "" || !slices.Contains(Types, entry.Type) {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	s.logger.Debug("activity", "run_id", entry.RunID, "type", entry.Type, "summary", entry.Summary)
	return nil
}

// GetRecentActivity lists entries newest first. A zero Limit selects
// DefaultLimit; larger limits are capped at MaxLimit.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, ErrInvalidInput
	}
	if opts.Type != nil && !slices.Contains(Types, *opts.Type) {
		return nil, ErrInvalidInput
	}
	switch {
	case opts.Limit == 0:
		opts.Limit = DefaultLimit
	case opts.Limit > MaxLimit:
		opts.Limit = MaxLimit
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
