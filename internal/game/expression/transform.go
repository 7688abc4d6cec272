package expression

// MapDice returns a copy of expr with every DiceExpression replaced by
// fn(d). The rewrite reaches dice inside groups, substitutions, function
// arguments, operations and dynamic amount or sides sub-expressions; fn
// sees the inner dice of a dynamic pool before the pool itself.
//
// Postcondition: expr is not modified.
func MapDice(expr Expression, fn func(DiceExpression) DiceExpression) Expression {
	out := Expression{Text: expr.Text, Components: make([]Component, len(expr.Components))}
	for i, c := range expr.Components {
		out.Components[i] = mapComponent(c, fn)
	}
	return out
}

func mapComponent(c Component, fn func(DiceExpression) DiceExpression) Component {
	switch c := c.(type) {
	case Operation:
		return Operation{Operator: c.Operator, Left: mapComponent(c.Left, fn), Right: mapComponent(c.Right, fn)}
	case NestedExpression:
		return NestedExpression{Value: MapDice(c.Value, fn), ExtraData: c.ExtraData}
	case Function:
		args := make([]Expression, len(c.Args))
		for i, a := range c.Args {
			args[i] = MapDice(a, fn)
		}
		return Function{Name: c.Name, Args: args}
	case DiceExpression:
		d := c
		if c.AmountExpression != nil {
			amount := MapDice(*c.AmountExpression, fn)
			d.AmountExpression = &amount
		}
		if c.SidesExpression != nil {
			sides := MapDice(*c.SidesExpression, fn)
			d.SidesExpression = &sides
		}
		return fn(d)
	}
	return c
}

// Walk calls visit for every component of expr, depth-first and left to
// right, descending into the same places as MapDice.
func Walk(expr Expression, visit func(Component)) {
	for _, c := range expr.Components {
		walkComponent(c, visit)
	}
}

func walkComponent(c Component, visit func(Component)) {
	visit(c)
	switch c := c.(type) {
	case Operation:
		walkComponent(c.Left, visit)
		walkComponent(c.Right, visit)
	case NestedExpression:
		Walk(c.Value, visit)
	case Function:
		for _, a := range c.Args {
			Walk(a, visit)
		}
	case DiceExpression:
		if c.AmountExpression != nil {
			Walk(*c.AmountExpression, visit)
		}
		if c.SidesExpression != nil {
			Walk(*c.SidesExpression, visit)
		}
	}
}
