// Package dice provides the randomness abstraction and roll-result types
// shared by the event resolver and the combat state machine.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "1d6+2"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"1d6+2 → [4] +2 = 6"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for every draw made by the engine.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// D20 rolls a single twenty-sided die.
//
// Postcondition: Returns a value in [1, 20].
func D20(src Source) int {
	return src.Intn(20) + 1
}

// Percent draws a uniform percentile value.
//
// Postcondition: Returns a value in [0, 100).
func Percent(src Source) int {
	return src.Intn(100)
}

// Between draws a uniform integer in the closed range [lo, hi].
//
// Precondition: lo <= hi.
func Between(src Source, lo, hi int) int {
	if lo > hi {
		panic(fmt.Sprintf("dice: Between called with lo %d > hi %d", lo, hi))
	}
	return lo + src.Intn(hi-lo+1)
}
