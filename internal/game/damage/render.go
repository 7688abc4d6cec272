package damage

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cory-johannsen/dicecalc/internal/game/dice"
	"github.com/cory-johannsen/dicecalc/internal/game/expression"
	"github.com/cory-johannsen/dicecalc/internal/game/formula"
)

// SectionValue is the display form of one calculated section.
type SectionValue struct {
	Name         string
	FinalText    string
	OriginalText string
	// NumericValue is set for sections that rolled no dice. Any multiplier
	// is already applied.
	NumericValue       *float64
	MultipliersApplied []float64
}

// RenderText calculates s with every die showing 1 and renders it.
// See RenderResult.
func RenderText(s Section, idx formula.SubstitutionIndex, unify bool) (string, []SectionValue, error) {
	result, err := Calculate(s, dice.Constant(1), idx, true)
	if err != nil {
		return "", nil, err
	}
	text, values := RenderResult(result, unify)
	return text, values, nil
}

// RenderResult renders a calculated result as compact dice text.
//
// Sections that rolled no dice collapse into one trailing number. With
// unify set, the dice of every section made only of plain dice, numbers and
// "+" are merged by side count and listed largest die first; other sections
// are kept verbatim after them. Without unify each section keeps its own
// text, in order.
//
// Postcondition: result is not modified, and rendering the same result twice
// yields the same text.
func RenderResult(result Result, unify bool) (string, []SectionValue) {
	rendered := make([]renderedSection, len(result.Sections))
	values := make([]SectionValue, len(result.Sections))
	for i, s := range result.Sections {
		rendered[i] = renderSection(s, unify)
		values[i] = rendered[i].value
	}

	var parts []string
	total := 0.0
	if unify {
		var pool []diceGroup
		var opaque []string
		for _, r := range rendered {
			switch {
			case r.value.NumericValue != nil:
				total += *r.value.NumericValue
			case r.plain && len(r.value.MultipliersApplied) == 0:
				pool = append(pool, r.groups...)
				total += r.remainder
			default:
				opaque = append(opaque, r.value.FinalText)
			}
		}
		if merged := formatGroups(mergeGroups(pool)); merged != "" {
			parts = append(parts, merged)
		}
		parts = append(parts, opaque...)
	} else {
		for _, r := range rendered {
			if r.value.NumericValue != nil {
				total += *r.value.NumericValue
				continue
			}
			parts = append(parts, r.value.FinalText)
		}
	}
	if total > 0 {
		parts = append(parts, formula.FormatNumber(total))
	}
	if len(parts) == 0 {
		return "0", values
	}
	return strings.Join(parts, " + "), values
}

type diceGroup struct {
	sides  int
	amount int
}

type renderedSection struct {
	value SectionValue
	// plain is set when the section is only dice, numbers and "+".
	plain     bool
	groups    []diceGroup
	remainder float64
}

func renderSection(s SectionResult, unify bool) renderedSection {
	multipliers := multipliersOf(s)
	out := renderedSection{value: SectionValue{
		Name:               s.Name,
		OriginalText:       s.OriginalExpression,
		MultipliersApplied: multipliers,
	}}

	if len(s.DiceResults) == 0 {
		v := s.TotalDamage
		out.value.NumericValue = &v
		out.value.FinalText = formula.FormatNumber(v)
		return out
	}

	groups, remainder, ok := plainTerms(s)
	if !ok {
		out.value.FinalText = annotate(s.OriginalExpression, multipliers)
		return out
	}
	out.plain = true
	out.groups = groups
	out.remainder = remainder

	if unify {
		groups = mergeGroups(groups)
	}
	text := formatGroups(groups)
	if remainder > 0 {
		text += " + " + formula.FormatNumber(remainder)
	}
	out.value.FinalText = annotate(text, multipliers)
	return out
}

func multipliersOf(s SectionResult) []float64 {
	var out []float64
	for _, m := range s.AppliedModifications {
		if m.IsMultiplier() {
			out = append(out, m.Multiplier)
		}
	}
	return out
}

// annotate appends "(* m)" per multiplier, parenthesizing compound text.
func annotate(text string, multipliers []float64) string {
	if len(multipliers) == 0 {
		return text
	}
	if strings.ContainsAny(text, "+-*/ ") {
		text = "(" + text + ")"
	}
	for _, m := range multipliers {
		text += "(* " + formula.FormatNumber(m) + ")"
	}
	return text
}

var (
	referencePattern = regexp.MustCompile(`@[A-Za-z0-9_.]+`)
	complexTokens    = []string{"*", "/", "-", "^", "min", "max"}
)

// plainTerms splits a simple section's expression into dice groups and a
// numeric remainder. It fails for anything beyond literal dice without
// selectors, numbers, "+" and groups of those.
func plainTerms(s SectionResult) ([]diceGroup, float64, bool) {
	if s.Expression == nil {
		return nil, 0, false
	}
	text := referencePattern.ReplaceAllString(s.OriginalExpression, "")
	for _, tok := range complexTokens {
		if strings.Contains(text, tok) {
			return nil, 0, false
		}
	}
	var groups []diceGroup
	remainder := 0.0
	plain := true
	expression.Walk(*s.Expression, func(c expression.Component) {
		switch c := c.(type) {
		case expression.Number:
			remainder += c.Value
		case expression.Operator:
			plain = plain && c.Symbol == expression.Sum
		case expression.DiceExpression:
			plain = plain && !c.IsDynamic() && len(c.Selectors) == 0
			groups = append(groups, diceGroup{sides: c.Sides, amount: c.Amount})
		case expression.NestedExpression:
			// Walk descends into the group.
		default:
			plain = false
		}
	})
	if !plain {
		return nil, 0, false
	}
	return groups, remainder, true
}

// mergeGroups sums amounts per side count, largest die first.
func mergeGroups(groups []diceGroup) []diceGroup {
	amounts := make(map[int]int)
	for _, g := range groups {
		amounts[g.sides] += g.amount
	}
	out := make([]diceGroup, 0, len(amounts))
	for sides, amount := range amounts {
		out = append(out, diceGroup{sides: sides, amount: amount})
	}
	slices.SortFunc(out, func(a, b diceGroup) int { return b.sides - a.sides })
	return out
}

func formatGroups(groups []diceGroup) string {
	terms := make([]string, len(groups))
	for i, g := range groups {
		terms[i] = strconv.Itoa(g.amount) + "d" + strconv.Itoa(g.sides)
	}
	return strings.Join(terms, " + ")
}
