package damage

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/dicecalc/internal/game/dice"
	"github.com/cory-johannsen/dicecalc/internal/game/expression"
)

// ModificationKind names a damage modification.
type ModificationKind string

const (
	// MultiplyAllDamage floors total * Multiplier.
	MultiplyAllDamage ModificationKind = "multiplyAllDamage"
	// MultiplyNonDiceDamage is MultiplyAllDamage for sections that rolled no
	// dice. Sections with dice are left untouched.
	MultiplyNonDiceDamage ModificationKind = "multiplyNonDiceDamage"
	// ReplaceDamageType re-attributes the section's damage to DamageType.
	ReplaceDamageType ModificationKind = "replaceDamageType"
	// ReplaceDice rewrites dice with FromSides faces to ToSides faces before
	// rolling.
	ReplaceDice ModificationKind = "replaceDice"
	// SumToEveryDice adds Amount to every die result.
	SumToEveryDice ModificationKind = "sumToEveryDice"
	// MaxDice makes every die roll its highest face.
	MaxDice ModificationKind = "maxDice"
	// RollDiceTwiceTakeBest rolls every die twice and keeps the higher draw.
	RollDiceTwiceTakeBest ModificationKind = "rollDiceTwiceTakeBest"
)

// Modification changes how a section is rolled or how its damage counts.
type Modification struct {
	Kind       ModificationKind `yaml:"type"`
	Multiplier float64          `yaml:"multiplier,omitempty"`
	DamageType *DamageType      `yaml:"damage_type,omitempty"`
	FromSides  int              `yaml:"from_sides,omitempty"`
	ToSides    int              `yaml:"to_sides,omitempty"`
	Amount     int              `yaml:"amount,omitempty"`
}

// MultiplyAll returns a MultiplyAllDamage modification.
func MultiplyAll(m float64) Modification {
	return Modification{Kind: MultiplyAllDamage, Multiplier: m}
}

// MultiplyNonDice returns a MultiplyNonDiceDamage modification.
func MultiplyNonDice(m float64) Modification {
	return Modification{Kind: MultiplyNonDiceDamage, Multiplier: m}
}

// ReplaceType returns a ReplaceDamageType modification.
func ReplaceType(t DamageType) Modification {
	return Modification{Kind: ReplaceDamageType, DamageType: &t}
}

// ReplaceDiceSides returns a ReplaceDice modification.
func ReplaceDiceSides(from, to int) Modification {
	return Modification{Kind: ReplaceDice, FromSides: from, ToSides: to}
}

// IsDiceLevel reports whether m acts on the dice of a simple section rather
// than on computed totals.
func (m Modification) IsDiceLevel() bool {
	switch m.Kind {
	case ReplaceDice, SumToEveryDice, MaxDice, RollDiceTwiceTakeBest:
		return true
	}
	return false
}

// IsMultiplier reports whether m scales damage.
func (m Modification) IsMultiplier() bool {
	return m.Kind == MultiplyAllDamage || m.Kind == MultiplyNonDiceDamage
}

// Validate reports a modification missing the fields its kind needs.
func (m Modification) Validate() error {
	switch m.Kind {
	case MultiplyAllDamage, MultiplyNonDiceDamage:
		if m.Multiplier < 0 {
			return fmt.Errorf("%s: multiplier must be >= 0", m.Kind)
		}
	case ReplaceDamageType:
		if m.DamageType == nil {
			return fmt.Errorf("%s: damage_type is required", m.Kind)
		}
		return m.DamageType.Validate()
	case ReplaceDice:
		if m.FromSides < 1 || m.ToSides < 1 {
			return fmt.Errorf("%s: from_sides and to_sides must be >= 1", m.Kind)
		}
	case SumToEveryDice, MaxDice, RollDiceTwiceTakeBest:
	default:
		return fmt.Errorf("unknown modification %q", m.Kind)
	}
	return nil
}

// Scope selects which sections of a complex section a modification reaches.
type Scope string

const (
	// AllSections applies to the complex section as a whole. Dice-level
	// modifications reach every child section.
	AllSections Scope = "allSections"
	// BaseSection applies to the base damage only.
	BaseSection Scope = "baseSection"
	// AdditionalSections applies to each additional section.
	AdditionalSections Scope = "additionalSections"
)

// ScopedModification is a Modification declared on a complex section.
// An empty Scope means AllSections.
type ScopedModification struct {
	Modification `yaml:",inline"`
	Scope        Scope `yaml:"scope,omitempty"`
}

// Validate checks the scope and the wrapped modification.
func (m ScopedModification) Validate() error {
	switch m.Scope {
	case "", AllSections, BaseSection, AdditionalSections:
	default:
		return errors.New("unknown scope " + string(m.Scope))
	}
	return m.Modification.Validate()
}

// rewriteDice applies ReplaceDice modifications, in order, to every literal
// dice term of expr.
func rewriteDice(expr expression.Expression, mods []Modification) expression.Expression {
	for _, m := range mods {
		if m.Kind != ReplaceDice {
			continue
		}
		from, to := m.FromSides, m.ToSides
		expr = expression.MapDice(expr, func(d expression.DiceExpression) expression.DiceExpression {
			if d.SidesExpression == nil && d.Sides == from {
				d.Sides = to
			}
			return d
		})
	}
	return expr
}

// decorate wraps rng with the roll-level modifications. MaxDice replaces
// the innermost source wherever it is declared; the other kinds wrap it in
// declaration order.
func decorate(rng dice.RandomInteger, mods []Modification) dice.RandomInteger {
	if slices.ContainsFunc(mods, func(m Modification) bool { return m.Kind == MaxDice }) {
		rng = dice.Maximized()
	}
	for _, m := range mods {
		switch m.Kind {
		case RollDiceTwiceTakeBest:
			rng = dice.BestOfTwo(rng)
		case SumToEveryDice:
			rng = dice.Offset(rng, m.Amount)
		}
	}
	return rng
}
