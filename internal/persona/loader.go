package persona

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashureev/roundtable/internal/domain"
)

// File is the YAML layout of a roster override file.
type File struct {
	Personas    []PersonaSpec   `yaml:"personas"`
	Transitions Transitions     `yaml:"transitions"`
	Directives  []DirectiveSpec `yaml:"directives"`
	Domain      *DomainSpec     `yaml:"domain"`
}

// PersonaSpec is the YAML form of a persona descriptor.
type PersonaSpec struct {
	ID         string                   `yaml:"id"`
	Key        string                   `yaml:"key"`
	Archetype  string                   `yaml:"archetype"`
	Descriptor string                   `yaml:"descriptor"`
	Directive  string                   `yaml:"directive"`
	Style      []string                 `yaml:"style"`
	Keywords   []domain.KeywordWeight   `yaml:"keywords"`
	Length     domain.LengthProfile     `yaml:"length"`
	Options    domain.GenerationOptions `yaml:"options"`
}

// DirectiveSpec is the YAML form of one relationship directive.
type DirectiveSpec struct {
	Speaker   string `yaml:"speaker"`
	Preceding string `yaml:"preceding"`
	Text      string `yaml:"text"`
}

// DomainSpec is the YAML form of the topical override rule.
type DomainSpec struct {
	Expert   string   `yaml:"expert"`
	Patterns []string `yaml:"patterns"`
	Keywords []string `yaml:"keywords"`
}

// LoadFile reads a roster file. Sections missing from the file fall back to
// the built-in defaults.
func LoadFile(path string) (*Roster, Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Tables{}, fmt.Errorf("read roster file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a roster document.
func Parse(data []byte) (*Roster, Tables, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, Tables{}, fmt.Errorf("decode roster file: %w", err)
	}

	tables := DefaultTables()
	roster := DefaultRoster()

	if len(f.Personas) > 0 {
		personas := make([]domain.Persona, 0, len(f.Personas))
		for _, spec := range f.Personas {
			personas = append(personas, spec.persona())
		}
		r, err := NewRoster(personas...)
		if err != nil {
			return nil, Tables{}, err
		}
		roster = r
	}

	if f.Transitions != nil {
		normalized := make(Transitions, len(f.Transitions))
		for from, list := range f.Transitions {
			for i := range list {
				list[i].To = strings.ToLower(list[i].To)
			}
			normalized[strings.ToLower(from)] = list
		}
		tables.Transitions = normalized
	}

	if f.Directives != nil {
		tables.Directives = make(Directives, len(f.Directives))
		for _, d := range f.Directives {
			key := DirectiveKey{Speaker: strings.ToLower(d.Speaker), Preceding: strings.ToLower(d.Preceding)}
			tables.Directives[key] = d.Text
		}
	}

	if f.Domain != nil {
		rule := DomainRule{Expert: strings.ToLower(f.Domain.Expert), Keywords: f.Domain.Keywords}
		for _, p := range f.Domain.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, Tables{}, fmt.Errorf("compile domain pattern %q: %w", p, err)
			}
			rule.Patterns = append(rule.Patterns, re)
		}
		tables.Domain = rule
	}

	return roster, tables, nil
}

func (s PersonaSpec) persona() domain.Persona {
	length := s.Length
	if length.BriefFactor == 0 {
		length.BriefFactor = 0.55
	}
	if length.DetailedFactor == 0 {
		length.DetailedFactor = 1.3
	}
	if length.TechnicalBonus == 0 {
		length.TechnicalBonus = 1.0
	}
	return domain.Persona{
		ID:         s.ID,
		Key:        strings.ToLower(s.Key),
		Archetype:  domain.Archetype(strings.ToLower(s.Archetype)),
		Descriptor: s.Descriptor,
		Directive:  s.Directive,
		Style:      s.Style,
		Keywords:   s.Keywords,
		Length:     length,
		Options:    s.Options,
	}
}
