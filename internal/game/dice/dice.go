// Package dice provides the randomness seam used by formula evaluation.
//
// Every random draw made while resolving an expression goes through a
// RandomInteger. Production code adapts a Source; tests use Constant or
// Sequence so the exact order of draws can be scripted.
package dice

import "sync"

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RandomInteger returns an integer in the closed range [lo, hi].
//
// Callers always pass lo <= hi; implementations may ignore the range
// entirely (test doubles do).
type RandomInteger func(lo, hi int) int

// FromSource adapts src to a RandomInteger drawing uniformly in [lo, hi].
//
// Precondition: src must be non-nil.
// Postcondition: returns lo whenever hi <= lo.
func FromSource(src Source) RandomInteger {
	return func(lo, hi int) int {
		if hi <= lo {
			return lo
		}
		return lo + src.Intn(hi-lo+1)
	}
}

// Constant returns a RandomInteger that always yields v.
func Constant(v int) RandomInteger {
	return func(int, int) int { return v }
}

// Sequence returns a RandomInteger that yields values in order. Once the
// values are exhausted the last one repeats; with no values it yields lo.
//
// The returned function is safe for concurrent use, but concurrent callers
// observe the scripted values in an unspecified interleaving.
func Sequence(values ...int) RandomInteger {
	var (
		mu   sync.Mutex
		next int
	)
	return func(lo, _ int) int {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return lo
		}
		if next >= len(values) {
			return values[len(values)-1]
		}
		v := values[next]
		next++
		return v
	}
}
