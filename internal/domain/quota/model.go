package quota

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar-date format of LastResetDate.
const DateLayout = "2006-01-02"

// UnlimitedLimit stands in for the ULTIMATE tier's unbounded allowance.
const UnlimitedLimit = math.MaxInt32

// Tier is a subscription tier.
type Tier string

const (
	TierFree     Tier = "FREE"
	TierPro      Tier = "PRO"
	TierUltimate Tier = "ULTIMATE"
)

// ParseTier parses a tier name case-insensitively.
func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToUpper(strings.TrimSpace(value))) {
	case TierFree:
		return TierFree, nil
	case TierPro:
		return TierPro, nil
	case TierUltimate:
		return TierUltimate, nil
	default:
		return "", ErrUnknownTier
	}
}

// DefaultLimit returns the daily allowance of a tier.
func DefaultLimit(tier Tier) int {
	switch tier {
	case TierPro:
		return 100
	case TierUltimate:
		return UnlimitedLimit
	default:
		return 3
	}
}

// State is the persisted daily quota. Count never exceeds Limit through
// RecordSuccess; callers check Remaining before attempting.
type State struct {
	Count         int    `json:"count"`
	Limit         int    `json:"limit"`
	Tier          Tier   `json:"tier"`
	LastResetDate string `json:"lastResetDate"`
}

// NewState returns a fresh state for tier with limit (DefaultLimit when
// limit is not positive), dated today.
func NewState(tier Tier, limit int, today time.Time) State {
	if limit <= 0 {
		limit = DefaultLimit(tier)
	}
	return State{
		Limit:         limit,
		Tier:          tier,
		LastResetDate: DateOf(today),
	}
}

// DateOf formats t as a calendar date in its own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// Reservation is the result of a pre-flight capacity check.
type Reservation struct {
	Granted bool
	// Allowed is the capacity left before the request.
	Allowed int
	// State is the state that would result from the request succeeding in
	// full. It is only set when Granted.
	State State
}

// Usage is a read-only view of the quota for display.
type Usage struct {
	Tier          Tier   `json:"tier"`
	Count         int    `json:"count"`
	Limit         int    `json:"limit"`
	Remaining     int    `json:"remaining"`
	LastResetDate string `json:"last_reset_date"`
}
