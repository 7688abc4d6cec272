package formula

import (
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/cory-johannsen/dicecalc/internal/game/expression"
)

// SubstitutionIndex maps reference names to their computed numeric values.
type SubstitutionIndex map[string]float64

// Table converts the index into a substitution table usable by the parser.
func (idx SubstitutionIndex) Table() expression.SubstitutionTable {
	table := make(expression.SubstitutionTable, len(idx))
	for name, v := range idx {
		table[name] = expression.Substitution{Expression: FormatNumber(v)}
	}
	return table
}

// IndexFromTable collects the entries of table whose expression is a plain
// number. Entries that need evaluation are skipped.
func IndexFromTable(table expression.SubstitutionTable) SubstitutionIndex {
	idx := make(SubstitutionIndex, len(table))
	for name, sub := range table {
		if v, err := strconv.ParseFloat(strings.TrimSpace(sub.Expression), 64); err == nil {
			idx[name] = v
		}
	}
	return idx
}

// FormatNumber renders v with the fewest digits that round-trip.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var referencePattern = regexp.MustCompile(`@([a-zA-Z0-9._-]+)`)

// Fill replaces every @name in text with its value from idx. Names missing
// from idx become "0".
//
// This is the lenient path. expression.Parse rejects missing names instead;
// callers pick the policy they need.
func Fill(text string, idx SubstitutionIndex) string {
	return referencePattern.ReplaceAllStringFunc(text, func(match string) string {
		v, ok := idx[match[1:]]
		if !ok {
			return "0"
		}
		return FormatNumber(v)
	})
}

// FillFormula returns the text f evaluates to under idx. Normal formulas are
// filled with Fill. Switch formulas return the winning case's result
// expression unfilled, the default value if nothing matches, or "0".
func FillFormula(f Formula, idx SubstitutionIndex) string {
	if f.IsSwitch() {
		return f.Select(idx)
	}
	return Fill(f.Expression, idx)
}

// Select returns the expression text f should be parsed from. For normal
// formulas that is Expression itself; for switch formulas it is the result
// expression of the first matching case, else DefaultValue, else "0".
// Numeric entries of f.SubstitutionData take precedence over idx.
func (f Formula) Select(idx SubstitutionIndex) string {
	if !f.IsSwitch() {
		return f.Expression
	}
	if len(f.SubstitutionData) > 0 {
		merged := maps.Clone(idx)
		if merged == nil {
			merged = make(SubstitutionIndex)
		}
		maps.Copy(merged, IndexFromTable(f.SubstitutionData))
		idx = merged
	}
	subject := Fill(f.SwitchExpression, idx)
	for _, c := range f.Cases {
		op := c.Operator
		if op == "" {
			op = Equal
		}
		if compare(subject, op, Fill(c.CaseValue, idx)) {
			return c.ResultExpression
		}
	}
	if f.DefaultValue == "" {
		return "0"
	}
	return f.DefaultValue
}

var leadingNumberPattern = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// leadingNumber parses the longest numeric prefix of s after leading
// whitespace, so "5 + 1" reads as 5 and "2d6" as 2.
func leadingNumber(s string) (float64, bool) {
	m := leadingNumberPattern.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	if strings.HasSuffix(m, "Infinity") {
		m = strings.TrimSuffix(m, "Infinity") + "Inf"
	}
	v, err := strconv.ParseFloat(m, 64)
	return v, err == nil
}

// compare is numeric when both sides start with a number. Otherwise only ==
// and != apply, as exact string comparisons.
func compare(left string, op Comparison, right string) bool {
	l, lok := leadingNumber(left)
	r, rok := leadingNumber(right)
	if lok && rok {
		switch op {
		case Equal:
			return l == r
		case NotEqual:
			return l != r
		case Less:
			return l < r
		case Greater:
			return l > r
		case LessOrEqual:
			return l <= r
		case GreaterOrEqual:
			return l >= r
		}
		return false
	}
	switch op {
	case Equal:
		return left == right
	case NotEqual:
		return left != right
	}
	return false
}
