package formula

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dicecalc/internal/game/dice"
	"github.com/cory-johannsen/dicecalc/internal/game/expression"
)

// Roller evaluates formulas against one random source and logs every roll.
// All rolls are logged at debug level with a roll id, the expression, the
// result and the dice pools.
type Roller struct {
	rng    dice.RandomInteger
	logger *zap.Logger
}

// NewRoller creates a Roller that draws from rng and logs to logger.
//
// Precondition: rng and logger must be non-nil.
func NewRoller(rng dice.RandomInteger, logger *zap.Logger) *Roller {
	return &Roller{rng: rng, logger: logger}
}

// RandomInteger returns the random source the Roller draws from.
func (r *Roller) RandomInteger() dice.RandomInteger {
	return r.rng
}

// Roll parses text against table, resolves it and logs the result.
//
// Postcondition: returns the resolved expression or a *expression.Error.
func (r *Roller) Roll(text string, table expression.SubstitutionTable) (expression.ResolvedExpression, error) {
	resolved, err := expression.Roll(text, table, r.rng)
	if err != nil {
		return expression.ResolvedExpression{}, err
	}
	r.logger.Debug("formula roll",
		zap.String("roll_id", uuid.NewString()),
		zap.String("expression", text),
		zap.Float64("result", resolved.Result),
		zap.Array("dice", dicePools(resolved.DiceResults())),
	)
	return resolved, nil
}

// RollFormula selects the expression f evaluates to under idx and rolls it.
// The formula's own substitution data takes precedence over idx.
func (r *Roller) RollFormula(f Formula, idx SubstitutionIndex) (expression.ResolvedExpression, error) {
	table := idx.Table().Merge(f.SubstitutionData)
	return r.Roll(f.Select(idx), table)
}

// SafeRoll is Roll for callers that must not fail: a formula that cannot be
// parsed or evaluated contributes 0 and the error is logged at warn level.
func (r *Roller) SafeRoll(text string, table expression.SubstitutionTable) float64 {
	resolved, err := r.Roll(text, table)
	if err != nil {
		r.logger.Warn("formula evaluation failed; using 0",
			zap.String("expression", text),
			zap.Error(err),
		)
		return 0
	}
	return resolved.Result
}

// SafeRollFormula is RollFormula with the SafeRoll failure policy.
func (r *Roller) SafeRollFormula(f Formula, idx SubstitutionIndex) float64 {
	return r.SafeRoll(f.Select(idx), idx.Table().Merge(f.SubstitutionData))
}
