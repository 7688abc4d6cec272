package expression

import (
	"math"
	"slices"

	"github.com/cory-johannsen/dicecalc/internal/game/dice"
)

// MaxDicePool bounds the number of dice a single pool may roll.
const MaxDicePool = 10000

// Resolve evaluates expr, drawing dice from rng.
//
// Evaluation is depth-first and strictly left to right, so a scripted rng
// sees draws in textual order. A dynamic amount is resolved before dynamic
// sides, and both before the pool itself is rolled.
//
// Precondition: rng must be non-nil.
// Postcondition: expr is not modified.
func Resolve(expr Expression, rng dice.RandomInteger) (ResolvedExpression, error) {
	if rng == nil {
		return ResolvedExpression{}, newError(KindEvaluation, expr.Text, -1, "no random source")
	}
	r := &resolver{rng: rng}
	return r.expression(expr)
}

// ResolveComponent evaluates a single component, drawing dice from rng.
//
// Precondition: rng must be non-nil.
func ResolveComponent(c Component, rng dice.RandomInteger) (ResolvedComponent, error) {
	if rng == nil {
		return ResolvedComponent{}, newError(KindEvaluation, "", -1, "no random source")
	}
	r := &resolver{rng: rng}
	return r.component("", c)
}

// Roll parses text against table and resolves it with rng.
func Roll(text string, table SubstitutionTable, rng dice.RandomInteger) (ResolvedExpression, error) {
	expr, err := Parse(text, table)
	if err != nil {
		return ResolvedExpression{}, err
	}
	return Resolve(expr, rng)
}

type resolver struct {
	rng dice.RandomInteger
}

func (r *resolver) expression(expr Expression) (ResolvedExpression, error) {
	out := ResolvedExpression{Text: expr.Text, Components: make([]ResolvedComponent, 0, len(expr.Components))}
	for _, c := range expr.Components {
		rc, err := r.component(expr.Text, c)
		if err != nil {
			return ResolvedExpression{}, err
		}
		out.Components = append(out.Components, rc)
	}
	out.Result = sum(out.Components)
	return out, nil
}

// sum adds every non-operator component, negating those that directly follow
// a Difference operator.
func sum(components []ResolvedComponent) float64 {
	total := 0.0
	for i, c := range components {
		if isOperator(c.Component) {
			continue
		}
		v := c.Result
		if i > 0 {
			if op, ok := components[i-1].Component.(Operator); ok && op.Symbol == Difference {
				v = -v
			}
		}
		total += v
	}
	return total
}

func (r *resolver) component(text string, c Component) (ResolvedComponent, error) {
	switch c := c.(type) {
	case Number:
		return ResolvedComponent{Component: c, Result: c.Value}, nil

	case Operator:
		return ResolvedComponent{Component: c}, nil

	case Operation:
		left, err := r.component(text, c.Left)
		if err != nil {
			return ResolvedComponent{}, err
		}
		right, err := r.component(text, c.Right)
		if err != nil {
			return ResolvedComponent{}, err
		}
		var v float64
		switch c.Operator {
		case Multiplication:
			v = left.Result * right.Result
		case Division:
			v = left.Result / right.Result
		default:
			return ResolvedComponent{}, newError(KindEvaluation, text, -1, "operator %q cannot form an operation", c.Operator)
		}
		return ResolvedComponent{Component: c, Result: v, Left: &left, Right: &right}, nil

	case NestedExpression:
		nested, err := r.expression(c.Value)
		if err != nil {
			return ResolvedComponent{}, err
		}
		return ResolvedComponent{Component: c, Result: nested.Result, Nested: &nested}, nil

	case Function:
		fn, ok := functions[c.Name]
		if !ok {
			return ResolvedComponent{}, newError(KindEvaluation, text, -1, "unknown function %q", c.Name)
		}
		if len(c.Args) < fn.minArgs || (fn.maxArgs >= 0 && len(c.Args) > fn.maxArgs) {
			return ResolvedComponent{}, newError(KindEvaluation, text, -1, "%s takes %s, got %d", c.Name, arity(fn), len(c.Args))
		}
		args := make([]ResolvedExpression, 0, len(c.Args))
		values := make([]float64, 0, len(c.Args))
		for _, a := range c.Args {
			ra, err := r.expression(a)
			if err != nil {
				return ResolvedComponent{}, err
			}
			args = append(args, ra)
			values = append(values, ra.Result)
		}
		return ResolvedComponent{Component: c, Result: fn.apply(values), Args: args}, nil

	case DiceExpression:
		return r.dice(text, c)
	}
	return ResolvedComponent{}, newError(KindEvaluation, text, -1, "unsupported component %T", c)
}

func (r *resolver) dice(text string, d DiceExpression) (ResolvedComponent, error) {
	out := ResolvedComponent{Component: d}

	amount := d.Amount
	if d.AmountExpression != nil {
		ra, err := r.expression(*d.AmountExpression)
		if err != nil {
			return ResolvedComponent{}, err
		}
		out.Amount = &ra
		amount = wholeNumber(ra.Result)
	}
	sides := d.Sides
	if d.SidesExpression != nil {
		rs, err := r.expression(*d.SidesExpression)
		if err != nil {
			return ResolvedComponent{}, err
		}
		out.Sides = &rs
		sides = wholeNumber(rs.Result)
	}

	amount = max(amount, 0)
	if sides < 1 {
		amount = 0
	}
	if amount > MaxDicePool {
		return ResolvedComponent{}, newError(KindEvaluation, text, -1, "dice pool of %d exceeds %d", amount, MaxDicePool)
	}

	rolls := make([]int, 0, amount)
	for range amount {
		rolls = append(rolls, r.rng(1, sides))
	}
	kept, discarded, err := applySelectors(text, rolls, d.Selectors)
	if err != nil {
		return ResolvedComponent{}, err
	}
	total := 0
	for _, v := range kept {
		total += v
	}

	out.Dice = &DiceRolledData{
		Sides:            sides,
		AllResults:       rolls,
		KeptResults:      kept,
		DiscardedResults: discarded,
		TotalResult:      total,
	}
	out.Result = float64(total)
	return out, nil
}

// wholeNumber floors v, mapping NaN and infinities to 0.
func wholeNumber(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f := math.Floor(v)
	if f > MaxDicePool+1 {
		return MaxDicePool + 1
	}
	if f < -1 {
		return -1
	}
	return int(f)
}

// applySelectors runs the selector chain over rolls. Each selector sees only
// what the previous one kept. rolls is not modified.
func applySelectors(text string, rolls []int, selectors []Selector) (kept, discarded []int, err error) {
	kept = slices.Clone(rolls)
	for _, s := range selectors {
		ascending := slices.Sorted(slices.Values(kept))
		descending := slices.Clone(ascending)
		slices.Reverse(descending)
		n := min(max(s.Count, 0), len(ascending))
		rest := len(ascending) - n

		switch s.Kind {
		case KeepHigher:
			kept, discarded = descending[:n], append(discarded, descending[n:]...)
		case KeepLower:
			kept, discarded = ascending[:n], append(discarded, ascending[n:]...)
		case DropHigher:
			kept, discarded = ascending[:rest], append(discarded, ascending[rest:]...)
		case DropLower:
			kept, discarded = descending[:rest], append(discarded, descending[rest:]...)
		default:
			return nil, nil, newError(KindEvaluation, text, -1, "unknown dice selector %q", s.Kind)
		}
	}
	return kept, discarded, nil
}
