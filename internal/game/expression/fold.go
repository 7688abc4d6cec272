package expression

// Fold groups division, then multiplication, into left-associative Operation
// nodes. Sum and Difference operators are left in place.
//
// Precondition: components is a flat infix stream as produced by Classify.
// Postcondition: the input slice is not modified; "1 / 2 * 4" folds to
// ((1/2)*4) and "1 / 2 / 2" to ((1/2)/2). Every remaining operator is
// followed by an operand, so only a single leading sign is accepted.
func Fold(components []Component) ([]Component, error) {
	out := components
	for _, sym := range foldPriority {
		var err error
		if out, err = foldSymbol(out, sym); err != nil {
			return nil, err
		}
	}
	if err := checkSigns(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkSigns rejects dangling and doubled Sum/Difference operators.
func checkSigns(components []Component) error {
	for i, c := range components {
		op, ok := c.(Operator)
		if !ok {
			continue
		}
		if i+1 >= len(components) || isOperator(components[i+1]) {
			return newError(KindParse, "", -1, "operator %q is missing its right operand", op.Symbol)
		}
	}
	return nil
}

func foldSymbol(in []Component, sym Symbol) ([]Component, error) {
	out := make([]Component, 0, len(in))
	for i := 0; i < len(in); i++ {
		op, ok := in[i].(Operator)
		if !ok || op.Symbol != sym {
			out = append(out, in[i])
			continue
		}
		if len(out) == 0 || isOperator(out[len(out)-1]) {
			return nil, newError(KindParse, "", -1, "operator %q is missing its left operand", sym)
		}
		if i+1 >= len(in) || isOperator(in[i+1]) {
			return nil, newError(KindParse, "", -1, "operator %q is missing its right operand", sym)
		}
		out[len(out)-1] = Operation{Operator: sym, Left: out[len(out)-1], Right: in[i+1]}
		i++
	}
	return out, nil
}

func isOperator(c Component) bool {
	_, ok := c.(Operator)
	return ok
}
