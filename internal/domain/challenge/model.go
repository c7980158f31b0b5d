package challenge

import "time"

// TileCount is the number of tiles shown in every round.
const TileCount = 6

// Icons are the symbols a round may be drawn with.
var Icons = []string{"✈️", "🚗", "🚀", "🚁", "🛴", "🚲", "🛸", "🚢"}

// WrongRotations are the rotations, in degrees, given to every tile except the
// upright one.
var WrongRotations = []int{90, 180, 270}

// State is the lifecycle state of a session.
type State string

const (
	StateAwaitingStart State = "AWAITING_START"
	StateRoundActive   State = "ROUND_ACTIVE"
	StateComplete      State = "COMPLETE"
	StateCancelled     State = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateCancelled
}

// Verdict is the result of judging one selection.
type Verdict string

const (
	VerdictPassedRound     Verdict = "PASSED_ROUND"
	VerdictFailedRound     Verdict = "FAILED_ROUND"
	VerdictSessionComplete Verdict = "SESSION_COMPLETE"
)

// Round is one tile-selection challenge. Exactly one tile is upright.
type Round struct {
	Icon         string         `json:"icon"`
	CorrectIndex int            `json:"-"`
	Rotations    [TileCount]int `json:"rotations"`
}

// Session tracks progress through the rounds of one gating episode.
type Session struct {
	ID             string    `json:"id"`
	RequiredRounds int       `json:"required_rounds"`
	RoundsPassed   int       `json:"rounds_passed"`
	State          State     `json:"state"`
	Current        *Round    `json:"current,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
