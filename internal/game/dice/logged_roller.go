package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so that every draw leaves a debug trail.
// A Roller is itself a Source and can be handed to any component that draws.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the draw at debug level.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("random draw", zap.Int("n", n), zap.Int("value", v))
	return v
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}
