package formula

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dicecalc/internal/game/expression"
)

// LoadSubstitutions reads a substitution table from a YAML file.
//
// Each top-level key is a reference name. Its value is either a scalar
// expression (`str: 4`) or a mapping with `expression` and optional
// `extra_data`.
//
// Postcondition: every returned entry has a non-empty Expression.
func LoadSubstitutions(path string) (expression.SubstitutionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSubstitutions: cannot read file %q: %w", path, err)
	}
	table, err := ParseSubstitutions(data)
	if err != nil {
		return nil, fmt.Errorf("LoadSubstitutions: %q: %w", path, err)
	}
	return table, nil
}

// ParseSubstitutions decodes a substitution table from YAML data.
func ParseSubstitutions(data []byte) (expression.SubstitutionTable, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse substitutions: %w", err)
	}

	table := make(expression.SubstitutionTable, len(raw))
	for name, node := range raw {
		var sub expression.Substitution
		switch node.Kind {
		case yaml.ScalarNode:
			sub.Expression = node.Value
		case yaml.MappingNode:
			if err := node.Decode(&sub); err != nil {
				return nil, fmt.Errorf("substitution %q: %w", name, err)
			}
		default:
			return nil, fmt.Errorf("substitution %q: line %d: expected an expression or a mapping", name, node.Line)
		}
		if sub.Expression == "" {
			return nil, fmt.Errorf("substitution %q: expression must not be empty", name)
		}
		table[name] = sub
	}
	return table, nil
}
