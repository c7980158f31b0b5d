package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ganot/quotagate/internal/repository"
)

// Store is the append-only account list. The in-memory list is rewritten to
// the repository after every append.
type Store struct {
	repo   Repository
	logger *slog.Logger

	mu      sync.RWMutex
	records []Record
}

// NewStore creates an empty store over repo.
func NewStore(repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{repo: repo, logger: logger}
}

// Load replaces the in-memory list with the persisted one. A missing record
// leaves the store empty.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.repo.Load(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("loading accounts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]Record(nil), records...)
	s.logger.Debug("accounts loaded", "count", len(s.records))
	return nil
}

// Append adds rec and persists the full list. The record stays appended in
// memory even when persisting fails.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.Username) == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	snapshot := append([]Record(nil), s.records...)
	s.mu.Unlock()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	return nil
}

// List returns a copy of the records in insertion order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
