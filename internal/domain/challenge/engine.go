package challenge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/quotagate/internal/random"
	"github.com/google/uuid"
)

// Engine generates and judges rounds. It holds no rendering state; callers
// translate a user's tile choice into Judge.
type Engine struct {
	mu       sync.Mutex
	src      random.Source
	sessions map[string]*entry
	observe  func(Verdict)
	logger   *slog.Logger
}

type entry struct {
	session Session
	done    chan struct{}
}

// NewEngine creates an engine drawing rounds from src.
func NewEngine(src random.Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		src:      src,
		sessions: make(map[string]*entry),
		logger:   logger,
	}
}

// OnVerdict registers fn to be called after every judged selection.
func (e *Engine) OnVerdict(fn func(Verdict)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observe = fn
}

// StartSession opens a session that completes after requiredRounds correct
// selections.
func (e *Engine) StartSession(requiredRounds int) (*Session, error) {
	ent, err := e.start(requiredRounds)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(ent), nil
}

func (e *Engine) start(requiredRounds int) (*entry, error) {
	if requiredRounds <= 0 {
		return nil, ErrInvalidInput
	}
	ent := &entry{
		session: Session{
			ID:             uuid.NewString(),
			RequiredRounds: requiredRounds,
			State:          StateAwaitingStart,
			CreatedAt:      time.Now(),
		},
		done: make(chan struct{}),
	}

	e.mu.Lock()
	e.sessions[ent.session.ID] = ent
	e.mu.Unlock()

	e.logger.Debug("challenge session started", "session_id", ent.session.ID, "required_rounds", requiredRounds)
	return ent, nil
}

// PresentRound returns the active round, drawing one if none is active.
func (e *Engine) PresentRound(id string) (Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.sessions[id]
	if !ok {
		return Round{}, ErrSessionNotFound
	}
	if ent.session.Current == nil {
		e.nextRound(ent)
	}
	return *ent.session.Current, nil
}

// Refresh discards the active round and draws a new one. Progress is kept.
func (e *Engine) Refresh(id string) (Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.sessions[id]
	if !ok {
		return Round{}, ErrSessionNotFound
	}
	e.nextRound(ent)
	return *ent.session.Current, nil
}

// Judge compares chosenIndex to the upright tile of the active round. A wrong
// choice costs only a fresh round: RoundsPassed is neither advanced nor reset.
func (e *Engine) Judge(id string, chosenIndex int) (Verdict, error) {
	if chosenIndex < 0 || chosenIndex >= TileCount {
		return "", ErrInvalidIndex
	}

	e.mu.Lock()
	ent, ok := e.sessions[id]
	if !ok {
		e.mu.Unlock()
		return "", ErrSessionNotFound
	}
	if ent.session.Current == nil {
		e.mu.Unlock()
		return "", ErrNoActiveRound
	}

	var verdict Verdict
	switch {
	case chosenIndex != ent.session.Current.CorrectIndex:
		verdict = VerdictFailedRound
		e.nextRound(ent)
	case ent.session.RoundsPassed+1 >= ent.session.RequiredRounds:
		ent.session.RoundsPassed++
		verdict = VerdictSessionComplete
		e.finish(ent, StateComplete)
	default:
		ent.session.RoundsPassed++
		verdict = VerdictPassedRound
		e.nextRound(ent)
	}
	observe := e.observe
	passed := ent.session.RoundsPassed
	e.mu.Unlock()

	e.logger.Debug("challenge judged", "session_id", id, "verdict", verdict, "rounds_passed", passed)
	if observe != nil {
		observe(verdict)
	}
	return verdict, nil
}

// CancelSession ends a session that has not completed.
func (e *Engine) CancelSession(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	e.finish(ent, StateCancelled)
	e.logger.Debug("challenge session cancelled", "session_id", id)
	return nil
}

// Session returns a snapshot of a live session.
func (e *Engine) Session(id string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshot(ent), nil
}

// Wait blocks until the session reaches a terminal state or ctx is done.
func (e *Engine) Wait(ctx context.Context, id string) (State, error) {
	e.mu.Lock()
	ent, ok := e.sessions[id]
	e.mu.Unlock()
	if !ok {
		return "", ErrSessionNotFound
	}
	return e.wait(ctx, ent)
}

func (e *Engine) wait(ctx context.Context, ent *entry) (State, error) {
	select {
	case <-ent.done:
		e.mu.Lock()
		defer e.mu.Unlock()
		return ent.session.State, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for challenge: %w", ctx.Err())
	}
}

// nextRound draws a fresh round. Callers hold e.mu.
func (e *Engine) nextRound(ent *entry) {
	round := Round{
		Icon:         Icons[e.src.IntN(len(Icons))],
		CorrectIndex: e.src.IntN(TileCount),
	}
	for i := range round.Rotations {
		if i == round.CorrectIndex {
			continue
		}
		round.Rotations[i] = WrongRotations[e.src.IntN(len(WrongRotations))]
	}
	ent.session.Current = &round
	ent.session.State = StateRoundActive
}

// finish moves a session to a terminal state and destroys it. Callers hold e.mu.
func (e *Engine) finish(ent *entry, state State) {
	ent.session.State = state
	ent.session.Current = nil
	delete(e.sessions, ent.session.ID)
	close(ent.done)
}

func snapshot(ent *entry) *Session {
	s := ent.session
	if s.Current != nil {
		round := *s.Current
		s.Current = &round
	}
	return &s
}
