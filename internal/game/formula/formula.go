// Package formula holds the formula values content files refer to: plain
// expressions and switch formulas, plus the numeric substitution index that
// the character layer supplies.
package formula

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dicecalc/internal/game/expression"
)

// Type distinguishes plain formulas from switch formulas.
type Type string

const (
	// Normal formulas evaluate Expression directly.
	Normal Type = "normal"
	// Switch formulas pick an expression by comparing SwitchExpression
	// against each case in order.
	Switch Type = "switch"
)

// Formula is a plain expression or a switch over several expressions.
//
// A bare YAML scalar decodes as a normal formula: `formula: 1d8 + 2`.
type Formula struct {
	Type             Type                         `yaml:"type,omitempty"`
	Expression       string                       `yaml:"expression,omitempty"`
	SwitchExpression string                       `yaml:"switch_expression,omitempty"`
	Cases            SwitchCases                  `yaml:"cases,omitempty"`
	DefaultValue     string                       `yaml:"default_value,omitempty"`
	SubstitutionData expression.SubstitutionTable `yaml:"substitution_data,omitempty"`
	ExtraData        map[string]any               `yaml:"extra_data,omitempty"`
}

// New returns a normal formula for text.
func New(text string) Formula {
	return Formula{Expression: text}
}

// IsSwitch reports whether f is a switch formula.
func (f Formula) IsSwitch() bool {
	return f.Type == Switch
}

// UnmarshalYAML accepts either a scalar expression or a full mapping.
func (f *Formula) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = Formula{Expression: node.Value}
		return nil
	}
	type plain Formula
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = Formula(p)
	return nil
}

// Validate reports structural problems with f.
func (f Formula) Validate() error {
	var errs []error
	switch f.Type {
	case "", Normal:
		if len(f.Cases) > 0 || f.SwitchExpression != "" {
			errs = append(errs, errors.New("normal formula must not declare switch cases"))
		}
	case Switch:
		if f.SwitchExpression == "" {
			errs = append(errs, errors.New("switch formula requires switch_expression"))
		}
		for i, c := range f.Cases {
			if !c.Operator.valid() {
				errs = append(errs, fmt.Errorf("case %d: unknown operator %q", i, c.Operator))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown formula type %q", f.Type))
	}
	return errors.Join(errs...)
}

// Comparison is the relational operator of a switch case.
type Comparison string

const (
	Equal          Comparison = "=="
	NotEqual       Comparison = "!="
	Less           Comparison = "<"
	Greater        Comparison = ">"
	LessOrEqual    Comparison = "<="
	GreaterOrEqual Comparison = ">="
)

func (c Comparison) valid() bool {
	switch c {
	case Equal, NotEqual, Less, Greater, LessOrEqual, GreaterOrEqual:
		return true
	}
	return false
}

// SwitchCase matches when `switch_expression <operator> case_value` holds.
type SwitchCase struct {
	CaseValue        string     `yaml:"case_value"`
	Operator         Comparison `yaml:"operator,omitempty"`
	ResultExpression string     `yaml:"result_expression"`
}

// SwitchCases is an ordered case list. The first matching case wins.
type SwitchCases []SwitchCase

// UnmarshalYAML accepts a case sequence, or the legacy mapping form
// `{caseValue: resultExpression}` which becomes "==" cases in document order.
// A missing operator defaults to "==".
func (s *SwitchCases) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var cases []SwitchCase
		if err := node.Decode(&cases); err != nil {
			return err
		}
		for i := range cases {
			if cases[i].Operator == "" {
				cases[i].Operator = Equal
			}
		}
		*s = cases
		return nil
	case yaml.MappingNode:
		cases := make(SwitchCases, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("formula: line %d: legacy case %q must map to an expression", value.Line, key.Value)
			}
			cases = append(cases, SwitchCase{CaseValue: key.Value, Operator: Equal, ResultExpression: value.Value})
		}
		*s = cases
		return nil
	}
	return fmt.Errorf("formula: line %d: cases must be a list or a mapping", node.Line)
}
