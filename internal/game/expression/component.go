// Package expression parses and evaluates the formula mini-language used for
// dice rolls and character bonuses.
//
// Text goes through three stages: the splitter/classifier turns it into a flat
// list of components, Fold groups division and multiplication into Operation
// nodes, and Resolve evaluates the tree against a dice.RandomInteger.
// Addition and subtraction never become nodes; they stay as Operator
// components and are applied by the summation step of Resolve.
package expression

// Symbol is an arithmetic operator symbol.
type Symbol string

const (
	// Sum is the "+" operator.
	Sum Symbol = "+"
	// Difference is the "-" operator.
	Difference Symbol = "-"
	// Multiplication is the "*" operator.
	Multiplication Symbol = "*"
	// Division is the "/" operator.
	Division Symbol = "/"
)

// foldPriority is the order in which Fold groups operators into Operation
// nodes. Division binds before multiplication.
var foldPriority = []Symbol{Division, Multiplication}

// Expression is a formula split into components. Before Fold it is a flat
// infix stream; after Fold only Sum and Difference operators remain at the
// top level.
type Expression struct {
	Text       string
	Components []Component
}

// Component is one node of an expression tree. The set of implementations is
// closed: Number, Operator, Operation, DiceExpression, NestedExpression and
// Function.
type Component interface {
	component()
}

// Number is a decimal literal.
type Number struct {
	Value float64
}

// Operator is an unfolded operator. It resolves to 0 on its own; its effect
// is applied by the component that follows it.
type Operator struct {
	Symbol Symbol
}

// Operation is a folded binary multiplication or division.
type Operation struct {
	Operator Symbol
	Left     Component
	Right    Component
}

// DiceExpression rolls Amount dice with Sides faces each.
//
// Amount and Sides are literals unless AmountExpression or SidesExpression is
// set, in which case the sub-expression is resolved first (amount before
// sides) and its result is used instead.
type DiceExpression struct {
	Amount           int
	AmountExpression *Expression
	Sides            int
	SidesExpression  *Expression
	Selectors        []Selector
}

// IsDynamic reports whether the amount or sides come from a sub-expression.
func (d DiceExpression) IsDynamic() bool {
	return d.AmountExpression != nil || d.SidesExpression != nil
}

// NestedExpression is a parenthesized group or a resolved substitution
// reference. ExtraData carries the substitution's metadata, if any.
type NestedExpression struct {
	Value     Expression
	ExtraData map[string]any
}

// Function applies a numeric function to its resolved arguments.
type Function struct {
	Name FunctionName
	Args []Expression
}

func (Number) component()           {}
func (Operator) component()         {}
func (Operation) component()        {}
func (DiceExpression) component()   {}
func (NestedExpression) component() {}
func (Function) component()         {}

// SelectorKind identifies a keep/drop rule applied to a rolled dice pool.
type SelectorKind string

const (
	// KeepHigher keeps the Count highest dice.
	KeepHigher SelectorKind = "kh"
	// KeepLower keeps the Count lowest dice.
	KeepLower SelectorKind = "kl"
	// DropHigher discards the Count highest dice.
	DropHigher SelectorKind = "dh"
	// DropLower discards the Count lowest dice.
	DropLower SelectorKind = "dl"
)

// Selector is one keep/drop rule. Selectors chain: the first one sees the
// whole rolled pool, each later one sees only what the previous one kept.
type Selector struct {
	Kind  SelectorKind
	Count int
}
