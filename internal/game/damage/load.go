package damage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dicecalc/internal/game/formula"
)

// sectionDoc is the YAML form of a Section. A document with base_damage is
// a complex section; anything else is simple.
type sectionDoc struct {
	Name               string               `yaml:"name"`
	Formula            *formula.Formula     `yaml:"formula,omitempty"`
	DamageType         *DamageType          `yaml:"damage_type,omitempty"`
	Modifications      []ScopedModification `yaml:"modifications,omitempty"`
	BaseDamage         *sectionDoc          `yaml:"base_damage,omitempty"`
	AdditionalSections []sectionDoc         `yaml:"additional_sections,omitempty"`
}

func (d sectionDoc) toSection() (Section, error) {
	if d.BaseDamage == nil {
		if d.Formula == nil {
			return nil, fmt.Errorf("section %q: formula or base_damage is required", d.Name)
		}
		if len(d.AdditionalSections) > 0 {
			return nil, fmt.Errorf("section %q: additional_sections requires base_damage", d.Name)
		}
		s := SimpleSection{Name: d.Name, Formula: *d.Formula, DamageType: d.DamageType}
		for _, m := range d.Modifications {
			if m.Scope != "" {
				return nil, fmt.Errorf("section %q: scope %q is only valid on complex sections", d.Name, m.Scope)
			}
			s.Modifications = append(s.Modifications, m.Modification)
		}
		return s, nil
	}

	if d.Formula != nil || d.DamageType != nil {
		return nil, fmt.Errorf("section %q: complex sections take no formula or damage_type", d.Name)
	}
	base, err := d.BaseDamage.toSection()
	if err != nil {
		return nil, err
	}
	s := ComplexSection{Name: d.Name, BaseDamage: base, Modifications: d.Modifications}
	for _, a := range d.AdditionalSections {
		sec, err := a.toSection()
		if err != nil {
			return nil, err
		}
		s.AdditionalSections = append(s.AdditionalSections, sec)
	}
	return s, nil
}

// ParseFormula decodes and validates one damage formula from YAML data.
func ParseFormula(data []byte) (Section, error) {
	var doc sectionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse damage formula: %w", err)
	}
	s, err := doc.toSection()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFormula reads one damage formula from a YAML file.
func LoadFormula(path string) (Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFormula: cannot read file %q: %w", path, err)
	}
	s, err := ParseFormula(data)
	if err != nil {
		return nil, fmt.Errorf("LoadFormula: invalid damage formula in %q: %w", path, err)
	}
	return s, nil
}

// LoadFormulas reads every .yaml file in dir, keyed by section name.
//
// Postcondition: names are unique across the directory.
func LoadFormulas(dir string) (map[string]Section, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadFormulas: cannot read directory %q: %w", dir, err)
	}

	formulas := make(map[string]Section)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		s, err := LoadFormula(path)
		if err != nil {
			return nil, fmt.Errorf("LoadFormulas: %w", err)
		}
		if _, dup := formulas[s.SectionName()]; dup {
			return nil, fmt.Errorf("LoadFormulas: duplicate damage formula %q in %q", s.SectionName(), path)
		}
		formulas[s.SectionName()] = s
	}
	return formulas, nil
}
