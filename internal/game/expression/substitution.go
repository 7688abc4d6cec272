package expression

import "maps"

// Substitution is the formula text an @reference expands to.
type Substitution struct {
	Expression string         `yaml:"expression"`
	ExtraData  map[string]any `yaml:"extra_data,omitempty"`
}

// SubstitutionTable maps reference names (without the leading "@") to their
// substitutions. Substitutions may reference other entries.
type SubstitutionTable map[string]Substitution

// Merge returns a new table holding t's entries overlaid with over's.
// Neither input is modified.
func (t SubstitutionTable) Merge(over SubstitutionTable) SubstitutionTable {
	out := make(SubstitutionTable, len(t)+len(over))
	maps.Copy(out, t)
	maps.Copy(out, over)
	return out
}
