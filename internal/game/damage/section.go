package damage

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dicecalc/internal/game/expression"
	"github.com/cory-johannsen/dicecalc/internal/game/formula"
)

// Section is one named contributor to a damage formula. The implementations
// are SimpleSection and ComplexSection.
type Section interface {
	SectionName() string
	Validate() error
	section()
}

// SimpleSection rolls a single formula.
//
// Untyped simple sections contribute inherited damage: an enclosing complex
// section attributes it to the type of its base damage.
type SimpleSection struct {
	Name          string
	Formula       formula.Formula
	DamageType    *DamageType
	Modifications []Modification
}

// ComplexSection sums a base damage section and any number of additional
// sections.
type ComplexSection struct {
	Name               string
	BaseDamage         Section
	AdditionalSections []Section
	Modifications      []ScopedModification
}

func (SimpleSection) section()  {}
func (ComplexSection) section() {}

// SectionName implements Section.
func (s SimpleSection) SectionName() string { return s.Name }

// SectionName implements Section.
func (s ComplexSection) SectionName() string { return s.Name }

// Validate implements Section.
func (s SimpleSection) Validate() error {
	var errs []error
	if err := s.Formula.Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.DamageType != nil {
		if err := s.DamageType.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for i, m := range s.Modifications {
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("modification %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("section %q: %w", s.Name, err)
	}
	return nil
}

// Validate implements Section.
func (s ComplexSection) Validate() error {
	var errs []error
	if s.BaseDamage == nil {
		errs = append(errs, errors.New("base damage is required"))
	} else if err := s.BaseDamage.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, a := range s.AdditionalSections {
		if err := a.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for i, m := range s.Modifications {
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("modification %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("section %q: %w", s.Name, err)
	}
	return nil
}

// TypeResult is the damage attributed to one damage type.
type TypeResult struct {
	TypeID string
	Type   DamageType
	Total  float64
}

// SectionResult is the calculated damage of one section.
type SectionResult struct {
	Name               string
	OriginalExpression string
	TotalDamage        float64
	TypeResults        []TypeResult
	// DiceResults holds every dice pool the section rolled. Complex sections
	// merge pools with the same number of sides.
	DiceResults []expression.DiceRolledData
	// InheritedTypeDamage is set when the section attributed its damage to
	// no type; HasInheritedType distinguishes an inherited 0 from none.
	InheritedTypeDamage  float64
	HasInheritedType     bool
	AppliedModifications []Modification
	// NestedSections lists the flattened child results of a complex section.
	NestedSections []SectionResult
	// Expression is the parsed formula after dice rewrites. Simple sections
	// only.
	Expression *expression.Expression
	// BaseDamageType is the type damage inherited from this section's
	// children is attributed to.
	BaseDamageType *DamageType
}

// Result is the outcome of calculating a whole damage formula.
type Result struct {
	TotalDamage float64
	// Sections lists the root section for a simple formula, or the flattened
	// child sections of a complex one.
	Sections    []SectionResult
	TypeResults []TypeResult
}
