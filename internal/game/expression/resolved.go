package expression

// ResolvedExpression is an evaluated Expression.
type ResolvedExpression struct {
	Text       string
	Components []ResolvedComponent
	Result     float64
}

// ResolvedComponent is an evaluated Component. Which of the optional fields
// are set depends on the component kind.
type ResolvedComponent struct {
	Component Component
	Result    float64

	// Left and Right are set for Operation.
	Left, Right *ResolvedComponent
	// Nested is set for NestedExpression.
	Nested *ResolvedExpression
	// Args is set for Function, one entry per argument.
	Args []ResolvedExpression
	// Amount and Sides are set for dice whose amount or sides is dynamic.
	Amount, Sides *ResolvedExpression
	// Dice is set for DiceExpression.
	Dice *DiceRolledData
}

// DiceRolledData records what happened to one dice pool.
type DiceRolledData struct {
	Sides int
	// AllResults is every draw in roll order.
	AllResults []int
	// KeptResults is what survived the selector chain. With selectors it is
	// sorted in the order the last selector produced it.
	KeptResults      []int
	DiscardedResults []int
	TotalResult      int
}

// DiceResults returns every dice pool rolled by the top-level arithmetic of
// r, depth-first. Dice rolled only to compute a dynamic amount or sides are
// not included.
func (r ResolvedExpression) DiceResults() []DiceRolledData {
	var out []DiceRolledData
	for _, c := range r.Components {
		out = c.appendDice(out)
	}
	return out
}

func (c ResolvedComponent) appendDice(out []DiceRolledData) []DiceRolledData {
	if c.Dice != nil {
		out = append(out, *c.Dice)
	}
	if c.Left != nil {
		out = c.Left.appendDice(out)
	}
	if c.Right != nil {
		out = c.Right.appendDice(out)
	}
	if c.Nested != nil {
		for _, n := range c.Nested.Components {
			out = n.appendDice(out)
		}
	}
	for _, arg := range c.Args {
		for _, n := range arg.Components {
			out = n.appendDice(out)
		}
	}
	return out
}
