package dice

// Maximized returns a RandomInteger where every die lands on its highest face.
func Maximized() RandomInteger {
	return func(_, hi int) int { return hi }
}

// BestOfTwo wraps next so that every die is drawn twice and the higher
// value is kept. Both draws are consumed from next, first then second.
//
// Precondition: next must be non-nil.
func BestOfTwo(next RandomInteger) RandomInteger {
	return func(lo, hi int) int {
		first := next(lo, hi)
		second := next(lo, hi)
		return max(first, second)
	}
}

// Offset wraps next so that amount is added to every die result.
//
// Precondition: next must be non-nil.
func Offset(next RandomInteger, amount int) RandomInteger {
	return func(lo, hi int) int {
		return next(lo, hi) + amount
	}
}
