package damage

import "math"

// Aggregate sums results that share a type id, keeping first-seen order.
//
// When extractHalfAndHalf is set, each half-and-half entry is then replaced
// by two basic entries: the first type gets ceil(total/2), the second the
// rest. The split entries are merged again with any existing entries of the
// same basic type.
//
// Postcondition: results is not modified.
func Aggregate(results []TypeResult, extractHalfAndHalf bool) []TypeResult {
	unified := unifyTypes(results)
	if !extractHalfAndHalf {
		return unified
	}

	split := make([]TypeResult, 0, len(unified))
	for _, r := range unified {
		if r.Type.Kind != KindHalfAndHalf {
			split = append(split, r)
			continue
		}
		first := math.Ceil(r.Total / 2)
		split = append(split,
			TypeResult{TypeID: r.Type.First, Type: Basic(r.Type.First), Total: first},
			TypeResult{TypeID: r.Type.Second, Type: Basic(r.Type.Second), Total: r.Total - first},
		)
	}
	return unifyTypes(split)
}

func unifyTypes(results []TypeResult) []TypeResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]TypeResult, 0, len(results))
	index := make(map[string]int, len(results))
	for _, r := range results {
		if i, ok := index[r.TypeID]; ok {
			out[i].Total += r.Total
			continue
		}
		index[r.TypeID] = len(out)
		out = append(out, r)
	}
	return out
}
