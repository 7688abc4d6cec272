// Package damage computes typed damage from trees of damage sections and
// renders them as compact dice text.
package damage

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeKind is the shape of a DamageType.
type TypeKind string

const (
	// KindBasic is a single named type such as "slashing".
	KindBasic TypeKind = "basic"
	// KindMultiple counts as every listed type at once.
	KindMultiple TypeKind = "multiple"
	// KindHalfAndHalf splits its damage between two types when aggregated.
	KindHalfAndHalf TypeKind = "halfAndHalf"
)

// DamageType describes what kind of damage a section deals.
//
// A bare YAML scalar decodes as a basic type: `damage_type: fire`.
type DamageType struct {
	Kind   TypeKind `yaml:"type"`
	Name   string   `yaml:"name,omitempty"`
	Names  []string `yaml:"names,omitempty"`
	First  string   `yaml:"first,omitempty"`
	Second string   `yaml:"second,omitempty"`
}

// Basic returns a single-type DamageType.
func Basic(name string) DamageType {
	return DamageType{Kind: KindBasic, Name: name}
}

// Multiple returns a DamageType that is all of names at once.
func Multiple(names ...string) DamageType {
	return DamageType{Kind: KindMultiple, Names: names}
}

// HalfAndHalf returns a DamageType split between first and second.
func HalfAndHalf(first, second string) DamageType {
	return DamageType{Kind: KindHalfAndHalf, First: first, Second: second}
}

// ID returns the stable identifier used to merge results of the same type.
//
// Postcondition: basic yields the name, multiple joins names with "-" in
// declared order, half-and-half yields "half-<first>-half-<second>".
func (t DamageType) ID() string {
	switch t.Kind {
	case KindMultiple:
		return strings.Join(t.Names, "-")
	case KindHalfAndHalf:
		return "half-" + t.First + "-half-" + t.Second
	}
	return t.Name
}

// String implements fmt.Stringer.
func (t DamageType) String() string {
	return t.ID()
}

// Validate reports a DamageType missing the fields its kind needs.
func (t DamageType) Validate() error {
	switch t.Kind {
	case KindBasic:
		if t.Name == "" {
			return errors.New("basic damage type requires name")
		}
	case KindMultiple:
		if len(t.Names) == 0 {
			return errors.New("multiple damage type requires names")
		}
	case KindHalfAndHalf:
		if t.First == "" || t.Second == "" {
			return errors.New("halfAndHalf damage type requires first and second")
		}
	default:
		return fmt.Errorf("unknown damage type kind %q", t.Kind)
	}
	return nil
}

// UnmarshalYAML accepts a scalar basic type name or a full mapping. A mapping
// without a type defaults to basic.
func (t *DamageType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*t = Basic(node.Value)
		return nil
	}
	type plain DamageType
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Kind == "" {
		p.Kind = KindBasic
	}
	*t = DamageType(p)
	return nil
}
