package damage

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cory-johannsen/dicecalc/internal/game/dice"
	"github.com/cory-johannsen/dicecalc/internal/game/expression"
	"github.com/cory-johannsen/dicecalc/internal/game/formula"
)

// Calculate rolls s with rng, resolving references from idx.
//
// When extractHalfAndHalf is set, half-and-half types in the aggregated
// result are split into their two basic types. Nested sections never split;
// only the root does.
//
// Precondition: rng must be non-nil.
// Postcondition: s is not modified; rng is drawn depth-first, base damage
// before additional sections, each formula left to right.
func Calculate(s Section, rng dice.RandomInteger, idx formula.SubstitutionIndex, extractHalfAndHalf bool) (Result, error) {
	return CalculateWithTable(s, rng, idx.Table(), extractHalfAndHalf)
}

// CalculateWithTable is Calculate for callers holding a substitution table
// rather than a numeric index.
func CalculateWithTable(s Section, rng dice.RandomInteger, table expression.SubstitutionTable, extractHalfAndHalf bool) (Result, error) {
	if rng == nil {
		return Result{}, fmt.Errorf("damage: no random source")
	}
	res, err := calculate(s, rng, table, nil)
	if err != nil {
		return Result{}, err
	}

	out := Result{
		TotalDamage: res.TotalDamage,
		TypeResults: Aggregate(res.TypeResults, extractHalfAndHalf),
	}
	if _, ok := s.(ComplexSection); ok {
		out.Sections = res.NestedSections
	} else {
		out.Sections = []SectionResult{res}
	}
	return out, nil
}

// calculate dispatches on the section kind. pushed holds modifications an
// enclosing complex section scoped down to s.
func calculate(s Section, rng dice.RandomInteger, table expression.SubstitutionTable, pushed []Modification) (SectionResult, error) {
	switch s := s.(type) {
	case SimpleSection:
		return calculateSimple(s, rng, table, pushed)
	case ComplexSection:
		return calculateComplex(s, rng, table, pushed)
	}
	return SectionResult{}, fmt.Errorf("damage: unsupported section %T", s)
}

func calculateSimple(s SimpleSection, rng dice.RandomInteger, table expression.SubstitutionTable, pushed []Modification) (SectionResult, error) {
	mods := append(slices.Clone(s.Modifications), pushed...)

	merged := table.Merge(s.Formula.SubstitutionData)
	text := s.Formula.Select(formula.IndexFromTable(merged))
	expr, err := expression.Parse(text, merged)
	if err != nil {
		return SectionResult{}, fmt.Errorf("damage: section %q: %w", s.Name, err)
	}
	expr = rewriteDice(expr, mods)

	resolved, err := expression.Resolve(expr, decorate(rng, mods))
	if err != nil {
		return SectionResult{}, fmt.Errorf("damage: section %q: %w", s.Name, err)
	}

	res := SectionResult{
		Name:               s.Name,
		OriginalExpression: text,
		TotalDamage:        resolved.Result,
		DiceResults:        resolved.DiceResults(),
		Expression:         &expr,
		BaseDamageType:     s.DamageType,
	}
	if s.DamageType != nil {
		res.TypeResults = []TypeResult{{TypeID: s.DamageType.ID(), Type: *s.DamageType, Total: res.TotalDamage}}
	} else {
		res.InheritedTypeDamage = res.TotalDamage
		res.HasInheritedType = true
	}
	for _, m := range mods {
		if m.IsDiceLevel() {
			res.AppliedModifications = append(res.AppliedModifications, m)
		}
	}
	return applyModifications(res, mods), nil
}

func calculateComplex(s ComplexSection, rng dice.RandomInteger, table expression.SubstitutionTable, pushed []Modification) (SectionResult, error) {
	if s.BaseDamage == nil {
		return SectionResult{}, fmt.Errorf("damage: section %q: base damage is required", s.Name)
	}

	scoped := slices.Clone(s.Modifications)
	for _, m := range pushed {
		scoped = append(scoped, ScopedModification{Modification: m, Scope: AllSections})
	}
	var toBase, toAdditional, own []Modification
	for _, m := range scoped {
		switch m.Scope {
		case BaseSection:
			toBase = append(toBase, m.Modification)
		case AdditionalSections:
			toAdditional = append(toAdditional, m.Modification)
		default:
			if m.IsDiceLevel() {
				toBase = append(toBase, m.Modification)
				toAdditional = append(toAdditional, m.Modification)
			} else {
				own = append(own, m.Modification)
			}
		}
	}

	base, err := calculate(s.BaseDamage, rng, table, toBase)
	if err != nil {
		return SectionResult{}, err
	}
	additional := make([]SectionResult, 0, len(s.AdditionalSections))
	for _, a := range s.AdditionalSections {
		r, err := calculate(a, rng, table, toAdditional)
		if err != nil {
			return SectionResult{}, err
		}
		additional = append(additional, r)
	}

	total := base.TotalDamage
	types := slices.Clone(base.TypeResults)
	dicePools := slices.Clone(base.DiceResults)
	for _, a := range additional {
		total += a.TotalDamage
		types = append(types, a.TypeResults...)
		dicePools = append(dicePools, a.DiceResults...)
	}
	types = append(types, inheritedTypeResults(additional, base.BaseDamageType)...)

	nested := []SectionResult{base}
	if _, ok := s.BaseDamage.(ComplexSection); ok {
		nested = slices.Clone(base.NestedSections)
	}
	nested = append(nested, additional...)
	originals := make([]string, len(nested))
	for i, n := range nested {
		originals[i] = n.OriginalExpression
	}

	res := SectionResult{
		Name:               s.Name,
		OriginalExpression: strings.Join(originals, " + "),
		TotalDamage:        total,
		TypeResults:        Aggregate(types, false),
		DiceResults:        unifyDice(dicePools),
		NestedSections:     nested,
		BaseDamageType:     base.BaseDamageType,
	}
	if len(res.TypeResults) == 0 {
		res.InheritedTypeDamage = total
		res.HasInheritedType = true
	}
	return applyModifications(res, own), nil
}

// inheritedTypeResults attributes the damage of untyped sections to t.
// Nothing is attributed when t is nil or the inherited damage is 0.
func inheritedTypeResults(sections []SectionResult, t *DamageType) []TypeResult {
	if t == nil {
		return nil
	}
	var out []TypeResult
	for _, s := range sections {
		if len(s.TypeResults) == 0 && s.HasInheritedType && s.InheritedTypeDamage != 0 {
			out = append(out, TypeResult{TypeID: t.ID(), Type: *t, Total: s.InheritedTypeDamage})
		}
	}
	return out
}

// applyModifications applies multipliers and type replacements in
// declaration order. Dice-level modifications were applied before rolling
// and are skipped.
func applyModifications(res SectionResult, mods []Modification) SectionResult {
	for _, m := range mods {
		switch m.Kind {
		case MultiplyAllDamage:
			res = multiply(res, m)
		case MultiplyNonDiceDamage:
			if len(res.DiceResults) == 0 {
				res = multiply(res, m)
			}
		case ReplaceDamageType:
			if m.DamageType == nil {
				continue
			}
			t := *m.DamageType
			res.TypeResults = []TypeResult{{TypeID: t.ID(), Type: t, Total: res.TotalDamage}}
			res.InheritedTypeDamage = 0
			res.HasInheritedType = false
			res.BaseDamageType = &t
			res.AppliedModifications = append(slices.Clone(res.AppliedModifications), m)
		}
	}
	return res
}

// multiply floors the section total, its inherited damage and each type
// result after scaling by m.Multiplier.
func multiply(res SectionResult, m Modification) SectionResult {
	res.TotalDamage = math.Floor(res.TotalDamage * m.Multiplier)
	if res.HasInheritedType {
		res.InheritedTypeDamage = math.Floor(res.InheritedTypeDamage * m.Multiplier)
	}
	types := make([]TypeResult, len(res.TypeResults))
	for i, t := range res.TypeResults {
		t.Total = math.Floor(t.Total * m.Multiplier)
		types[i] = t
	}
	res.TypeResults = types
	res.AppliedModifications = append(slices.Clone(res.AppliedModifications), m)
	return res
}

// unifyDice merges pools with the same number of sides, keeping the order
// in which each side count first appeared.
func unifyDice(pools []expression.DiceRolledData) []expression.DiceRolledData {
	var out []expression.DiceRolledData
	index := make(map[int]int)
	for _, p := range pools {
		i, ok := index[p.Sides]
		if !ok {
			index[p.Sides] = len(out)
			out = append(out, expression.DiceRolledData{
				Sides:            p.Sides,
				AllResults:       slices.Clone(p.AllResults),
				KeptResults:      slices.Clone(p.KeptResults),
				DiscardedResults: slices.Clone(p.DiscardedResults),
				TotalResult:      p.TotalResult,
			})
			continue
		}
		out[i].AllResults = append(out[i].AllResults, p.AllResults...)
		out[i].KeptResults = append(out[i].KeptResults, p.KeptResults...)
		out[i].DiscardedResults = append(out[i].DiscardedResults, p.DiscardedResults...)
		out[i].TotalResult += p.TotalResult
	}
	return out
}
