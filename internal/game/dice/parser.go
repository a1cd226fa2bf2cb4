package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression represents a parsed dice expression ready to be rolled.
// Invariant: Count >= 1 and Sides >= 2 after a successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d6", "1d6", "2d4+1", "1d8-2".
//
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	s := strings.ToLower(strings.TrimSpace(expr))

	countStr, rest, ok := strings.Cut(s, "d")
	if !ok {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", expr)
	}

	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
		}
		if n <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", expr)
		}
		count = n
	}

	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", expr)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}

	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: modifier}, nil
}

// Max returns the largest total the expression can produce.
func (e Expression) Max() int {
	return e.Count*e.Sides + e.Modifier
}

// Min returns the smallest total the expression can produce.
func (e Expression) Min() int {
	return e.Count + e.Modifier
}
