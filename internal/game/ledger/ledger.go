// Package ledger converts a day's habit points into rationed exploration runs
// and tracks how many of them have been spent.
package ledger

import (
	"errors"
	"fmt"
)

// ErrRunsExhausted is returned by ConsumeRun when every available run has been used.
var ErrRunsExhausted = errors.New("runs exhausted")

// DefaultThresholds are the habit-point breakpoints that unlock the first,
// second and third run of the day.
var DefaultThresholds = Thresholds{6, 9, 12}

// Thresholds is the ordered list of habit-point breakpoints. Reaching the
// i-th breakpoint unlocks i+1 runs.
//
// Invariant: exactly three strictly increasing positive values.
type Thresholds [3]int

// Validate checks the Thresholds invariant.
func (t Thresholds) Validate() error {
	prev := 0
	for i, v := range t {
		if v <= prev {
			return fmt.Errorf("ledger: threshold %d (%d) must be greater than %d", i+1, v, prev)
		}
		prev = v
	}
	return nil
}

// Flags records which breakpoints have been reached.
type Flags struct {
	Threshold1 bool `json:"threshold1Reached"`
	Threshold2 bool `json:"threshold2Reached"`
	Threshold3 bool `json:"threshold3Reached"`
}

// Count returns the number of reached breakpoints.
func (f Flags) Count() int {
	n := 0
	for _, b := range []bool{f.Threshold1, f.Threshold2, f.Threshold3} {
		if b {
			n++
		}
	}
	return n
}

// or merges two flag sets; a flag once reached stays reached.
func (f Flags) or(o Flags) Flags {
	return Flags{
		Threshold1: f.Threshold1 || o.Threshold1,
		Threshold2: f.Threshold2 || o.Threshold2,
		Threshold3: f.Threshold3 || o.Threshold3,
	}
}

// Recompute applies the breakpoints to a habit-point total.
//
// Postcondition: available == flags.Count(); points below the first
// breakpoint yield 0 and no flags.
func (t Thresholds) Recompute(points int) (available int, flags Flags) {
	flags = Flags{
		Threshold1: points >= t[0],
		Threshold2: points >= t[1],
		Threshold3: points >= t[2],
	}
	return flags.Count(), flags
}

// DailyProgress is one player's run ledger for one calendar day.
//
// Invariant: RunsAvailable == Flags.Count(); 0 <= RunsUsed <= RunsAvailable.
type DailyProgress struct {
	PlayerID          string `json:"playerId"`
	Date              string `json:"date"`
	HabitPointsEarned int    `json:"habitPointsEarned"`
	RunsAvailable     int    `json:"runsAvailable"`
	RunsUsed          int    `json:"runsUsed"`
	Flags
}

// NewDailyProgress returns the empty record created lazily on first read.
func NewDailyProgress(playerID, date string) DailyProgress {
	return DailyProgress{PlayerID: playerID, Date: date}
}

// Remaining returns the number of runs still available today.
func (p DailyProgress) Remaining() int {
	return p.RunsAvailable - p.RunsUsed
}

// CanDrawRun reports whether another run may be spent today.
func CanDrawRun(p DailyProgress) bool {
	return p.RunsUsed < p.RunsAvailable
}

// ConsumeRun spends one run.
//
// Postcondition: on success RunsUsed is incremented by exactly one;
// ErrRunsExhausted is returned and p is unchanged when no run remains.
func ConsumeRun(p DailyProgress) (DailyProgress, error) {
	if !CanDrawRun(p) {
		return p, fmt.Errorf("player %q on %s: %w", p.PlayerID, p.Date, ErrRunsExhausted)
	}
	p.RunsUsed++
	return p, nil
}

// Apply merges a freshly reported habit-point total into p.
//
// Postcondition: RunsAvailable, the flags and HabitPointsEarned never decrease,
// so re-reading the same or a slightly lower total is a no-op.
func (t Thresholds) Apply(p DailyProgress, points int) DailyProgress {
	if points > p.HabitPointsEarned {
		p.HabitPointsEarned = points
	}
	_, flags := t.Recompute(points)
	p.Flags = p.Flags.or(flags)
	p.RunsAvailable = p.Flags.Count()
	return p
}
