package quota

import "time"

// Remaining reports the capacity left in state.
func Remaining(state State) int {
	if state.Count >= state.Limit {
		return 0
	}
	return state.Limit - state.Count
}

// Reserve checks whether requested attempts fit the remaining capacity. It
// does not consume anything: the count only moves on RecordSuccess.
func Reserve(state State, requested int) (Reservation, error) {
	if requested <= 0 {
		return Reservation{}, ErrInvalidInput
	}
	allowed := Remaining(state)
	if requested > allowed {
		return Reservation{Allowed: allowed}, nil
	}
	next := state
	next.Count += requested
	return Reservation{Granted: true, Allowed: allowed, State: next}, nil
}

// ApplyDailyReset zeroes the count when today is a different calendar date
// from the last reset. It reports whether a reset happened.
func ApplyDailyReset(state State, today time.Time) (State, bool) {
	date := DateOf(today)
	if state.LastResetDate == date {
		return state, false
	}
	state.Count = 0
	state.LastResetDate = date
	return state, true
}

// RecordSuccess counts one successful attempt, saturating at Limit.
func RecordSuccess(state State) State {
	if state.Count < state.Limit {
		state.Count++
	}
	return state
}

// UsageOf summarises state.
func UsageOf(state State) Usage {
	return Usage{
		Tier:          state.Tier,
		Count:         state.Count,
		Limit:         state.Limit,
		Remaining:     Remaining(state),
		LastResetDate: state.LastResetDate,
	}
}
