package challenge

import (
	"context"
	"fmt"
	"sync"
)

// Gate blocks a caller until a human passes a challenge session. The session
// it is waiting on is published through Pending so a rendering adapter can
// present rounds and forward selections.
type Gate struct {
	engine *Engine

	mu      sync.Mutex
	pending string
}

// NewGate creates a gate over engine.
func NewGate(engine *Engine) *Gate {
	return &Gate{engine: engine}
}

// Engine returns the engine the gate drives.
func (g *Gate) Engine() *Engine {
	return g.engine
}

// Pending returns the ID of the session currently blocking a caller.
func (g *Gate) Pending() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending, g.pending != ""
}

// Pass opens a session of the given number of rounds and waits for it to
// complete. It returns ErrChallengeCancelled if the session is cancelled or
// ctx ends first; in the latter case the session is cancelled too.
func (g *Gate) Pass(ctx context.Context, rounds int) error {
	ent, err := g.engine.start(rounds)
	if err != nil {
		return err
	}
	id := ent.session.ID
	if _, err := g.engine.PresentRound(id); err != nil {
		return err
	}

	g.setPending(id)
	defer g.setPending("")

	state, err := g.engine.wait(ctx, ent)
	if err != nil {
		_ = g.engine.CancelSession(id)
		return fmt.Errorf("%w: %v", ErrChallengeCancelled, err)
	}
	if state != StateComplete {
		return ErrChallengeCancelled
	}
	return nil
}

func (g *Gate) setPending(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = id
}

// PresentRound forwards to the engine.
func (g *Gate) PresentRound(id string) (Round, error) { return g.engine.PresentRound(id) }

// Refresh forwards to the engine.
func (g *Gate) Refresh(id string) (Round, error) { return g.engine.Refresh(id) }

// Judge forwards to the engine.
func (g *Gate) Judge(id string, chosenIndex int) (Verdict, error) {
	return g.engine.Judge(id, chosenIndex)
}

// CancelSession forwards to the engine.
func (g *Gate) CancelSession(id string) error { return g.engine.CancelSession(id) }

// Session forwards to the engine.
func (g *Gate) Session(id string) (*Session, error) { return g.engine.Session(id) }
