package expression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dicecalc/internal/game/expression"
)

func num(v float64) expression.Number { return expression.Number{Value: v} }

func op(s expression.Symbol) expression.Operator { return expression.Operator{Symbol: s} }

func TestParse_FoldsDivisionBeforeMultiplication(t *testing.T) {
	expr, err := expression.Parse("1 / 2 * 4", nil)
	require.NoError(t, err)
	assert.Equal(t, "1 / 2 * 4", expr.Text)
	require.Len(t, expr.Components, 1)
	assert.Equal(t, expression.Operation{
		Operator: expression.Multiplication,
		Left:     expression.Operation{Operator: expression.Division, Left: num(1), Right: num(2)},
		Right:    num(4),
	}, expr.Components[0])
}

func TestParse_SameOperatorFoldsLeftToRight(t *testing.T) {
	expr, err := expression.Parse("1 / 2 / 2", nil)
	require.NoError(t, err)
	require.Len(t, expr.Components, 1)
	assert.Equal(t, expression.Operation{
		Operator: expression.Division,
		Left:     expression.Operation{Operator: expression.Division, Left: num(1), Right: num(2)},
		Right:    num(2),
	}, expr.Components[0])
}

func TestParse_SumAndDifferenceStayFlat(t *testing.T) {
	expr, err := expression.Parse("2 + 3 * 4 - 1", nil)
	require.NoError(t, err)
	assert.Equal(t, []expression.Component{
		num(2),
		op(expression.Sum),
		expression.Operation{Operator: expression.Multiplication, Left: num(3), Right: num(4)},
		op(expression.Difference),
		num(1),
	}, expr.Components)
}

func TestClassify_DoesNotFold(t *testing.T) {
	components, err := expression.Classify("2 * 3", nil)
	require.NoError(t, err)
	assert.Equal(t, []expression.Component{num(2), op(expression.Multiplication), num(3)}, components)
}

func TestFold_DoesNotModifyInput(t *testing.T) {
	in := []expression.Component{num(6), op(expression.Division), num(3)}
	out, err := expression.Fold(in)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, []expression.Component{num(6), op(expression.Division), num(3)}, in)
}

func TestParse_Dice(t *testing.T) {
	expr, err := expression.Parse("2d6kh + 4d20dh2dl", nil)
	require.NoError(t, err)
	require.Len(t, expr.Components, 3)
	assert.Equal(t, expression.DiceExpression{
		Amount: 2, Sides: 6,
		Selectors: []expression.Selector{{Kind: expression.KeepHigher, Count: 1}},
	}, expr.Components[0])
	assert.Equal(t, expression.DiceExpression{
		Amount: 4, Sides: 20,
		Selectors: []expression.Selector{
			{Kind: expression.DropHigher, Count: 2},
			{Kind: expression.DropLower, Count: 1},
		},
	}, expr.Components[2])
}

func TestParse_ZeroSelectorCountMeansOne(t *testing.T) {
	expr, err := expression.Parse("3d6kl0", nil)
	require.NoError(t, err)
	d := expr.Components[0].(expression.DiceExpression)
	assert.Equal(t, []expression.Selector{{Kind: expression.KeepLower, Count: 1}}, d.Selectors)
}

func TestParse_DynamicDice(t *testing.T) {
	tests := []struct {
		text       string
		amountText string
		sidesText  string
		amount     int
		sides      int
		selectors  int
	}{
		{text: "(1d4)d6", amountText: "1d4", sides: 6},
		{text: "(3d2kh2)d6dl2", amountText: "3d2kh2", sides: 6, selectors: 1},
		{text: "2d(1d4 + 2)", amount: 2, sidesText: "1d4 + 2"},
		{text: "2d(8)kh", amount: 2, sidesText: "8", selectors: 1},
		{text: "(1 + 1)d(2 * 3)", amountText: "1 + 1", sidesText: "2 * 3"},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			expr, err := expression.Parse(tc.text, nil)
			require.NoError(t, err)
			require.Len(t, expr.Components, 1)
			d, ok := expr.Components[0].(expression.DiceExpression)
			require.True(t, ok, "got %T", expr.Components[0])
			assert.True(t, d.IsDynamic())
			if tc.amountText != "" {
				require.NotNil(t, d.AmountExpression)
				assert.Equal(t, tc.amountText, d.AmountExpression.Text)
			} else {
				assert.Nil(t, d.AmountExpression)
				assert.Equal(t, tc.amount, d.Amount)
			}
			if tc.sidesText != "" {
				require.NotNil(t, d.SidesExpression)
				assert.Equal(t, tc.sidesText, d.SidesExpression.Text)
			} else {
				assert.Nil(t, d.SidesExpression)
				assert.Equal(t, tc.sides, d.Sides)
			}
			assert.Len(t, d.Selectors, tc.selectors)
		})
	}
}

func TestParse_Group(t *testing.T) {
	expr, err := expression.Parse("(1d4 + 1) * 2", nil)
	require.NoError(t, err)
	require.Len(t, expr.Components, 1)
	operation := expr.Components[0].(expression.Operation)
	nested, ok := operation.Left.(expression.NestedExpression)
	require.True(t, ok)
	assert.Equal(t, "1d4 + 1", nested.Value.Text)
	assert.Equal(t, []expression.Component{
		expression.DiceExpression{Amount: 1, Sides: 4},
		op(expression.Sum),
		num(1),
	}, nested.Value.Components)
}

func TestParse_Function(t *testing.T) {
	expr, err := expression.Parse("max(1, min(2, 3), 4)", nil)
	require.NoError(t, err)
	require.Len(t, expr.Components, 1)
	fn := expr.Components[0].(expression.Function)
	assert.Equal(t, expression.Max, fn.Name)
	require.Len(t, fn.Args, 3)
	assert.Equal(t, "min(2, 3)", fn.Args[1].Text)
	inner := fn.Args[1].Components[0].(expression.Function)
	assert.Equal(t, expression.Min, inner.Name)
	assert.Len(t, inner.Args, 2)
}

func TestParse_Substitution(t *testing.T) {
	table := expression.SubstitutionTable{
		"str":       {Expression: "4"},
		"bonus.all": {Expression: "@str + 1", ExtraData: map[string]any{"source": "feat"}},
	}
	expr, err := expression.Parse("1d20 + @bonus.all", table)
	require.NoError(t, err)
	require.Len(t, expr.Components, 3)
	nested, ok := expr.Components[2].(expression.NestedExpression)
	require.True(t, ok)
	assert.Equal(t, "@str + 1", nested.Value.Text)
	assert.Equal(t, map[string]any{"source": "feat"}, nested.ExtraData)
	inner, ok := nested.Value.Components[0].(expression.NestedExpression)
	require.True(t, ok)
	assert.Equal(t, []expression.Component{num(4)}, inner.Value.Components)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		table    expression.SubstitutionTable
		sentinel error
		position int
	}{
		{name: "unclosed paren", text: "(1 + 2", sentinel: expression.ErrParse, position: 0},
		{name: "stray close paren", text: "1 + 2)", sentinel: expression.ErrParse, position: 5},
		{name: "unknown selector", text: "2d6xx", sentinel: expression.ErrParse, position: 0},
		{name: "dice without amount", text: "d6", sentinel: expression.ErrParse, position: 0},
		{name: "fractional amount", text: "1.5d6", sentinel: expression.ErrParse, position: 0},
		{name: "unknown identifier", text: "2 + foo", sentinel: expression.ErrParse, position: 4},
		{name: "empty call", text: "min()", sentinel: expression.ErrParse, position: 0},
		{name: "too many arguments", text: "floor(1, 2)", sentinel: expression.ErrParse, position: 0},
		{name: "empty argument", text: "max(1, )", sentinel: expression.ErrParse, position: 0},
		{name: "top-level comma", text: "1, 2", sentinel: expression.ErrParse, position: 1},
		{name: "missing left operand", text: "* 2", sentinel: expression.ErrParse, position: -1},
		{name: "missing right operand", text: "2 /", sentinel: expression.ErrParse, position: -1},
		{name: "trailing plus", text: "1d6 +", sentinel: expression.ErrParse, position: -1},
		{name: "trailing minus", text: "3 -", sentinel: expression.ErrParse, position: -1},
		{name: "doubled plus", text: "1 + + 2", sentinel: expression.ErrParse, position: -1},
		{name: "lone sign", text: "+", sentinel: expression.ErrParse, position: -1},
		{name: "doubled sign after leading sign", text: "- - 2", sentinel: expression.ErrParse, position: -1},
		{name: "missing substitution", text: "1 + @dex", sentinel: expression.ErrMissingSubstitution, position: 4},
		{name: "nil table", text: "@dex", sentinel: expression.ErrMissingSubstitution, position: 0},
		{
			name:     "substitution cycle",
			text:     "@a",
			table:    expression.SubstitutionTable{"a": {Expression: "@b"}, "b": {Expression: "1 + @a"}},
			sentinel: expression.ErrParse,
			position: 4,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := expression.Parse(tc.text, tc.table)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)
			var e *expression.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.position, e.Position)
		})
	}
}

func TestParse_FoldErrorCarriesText(t *testing.T) {
	_, err := expression.Parse("2 /", nil)
	var e *expression.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "2 /", e.Text)
	assert.Contains(t, err.Error(), "right operand")
}

func TestParse_Empty(t *testing.T) {
	expr, err := expression.Parse("", nil)
	require.NoError(t, err)
	assert.Empty(t, expr.Components)
}
