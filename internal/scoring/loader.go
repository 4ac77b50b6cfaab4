package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
)

// ProfileSet is the full rule configuration of an evaluator
type ProfileSet struct {
	ICP      RuleProfile   `json:"icp"`
	Personas []RuleProfile `json:"personas"`
}

// DefaultProfileSet returns the built-in ICP and persona profiles
func DefaultProfileSet() *ProfileSet {
	return &ProfileSet{
		ICP:      GetDefaultICPProfile(),
		Personas: GetDefaultPersonaProfiles(),
	}
}

// NewEvaluator creates an evaluator from the set
func (s *ProfileSet) NewEvaluator() *Evaluator {
	return NewEvaluator(s.ICP, s.Personas)
}

// Validate checks every profile in the set
func (s *ProfileSet) Validate() error {
	if err := s.ICP.Validate(); err != nil {
		return fmt.Errorf("icp: %w", err)
	}
	for i, p := range s.Personas {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("persona %d: %w", i, err)
		}
	}
	return nil
}

type profileDocument struct {
	ICP      *profileSpec  `json:"icp" yaml:"icp"`
	Personas []profileSpec `json:"personas" yaml:"personas"`
}

type profileSpec struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Criteria    []criterionSpec `json:"criteria" yaml:"criteria"`
}

type criterionSpec struct {
	Name        string        `json:"name" yaml:"name"`
	SourceField string        `json:"source_field" yaml:"source_field"`
	Weight      *float64      `json:"weight" yaml:"weight"`
	Operator    string        `json:"operator" yaml:"operator"`
	Value       interface{}   `json:"value" yaml:"value"`
	Min         *float64      `json:"min" yaml:"min"`
	Max         *float64      `json:"max" yaml:"max"`
	Values      []interface{} `json:"values" yaml:"values"`
	Description string        `json:"description" yaml:"description"`
}

// LoadProfiles reads a profile file. Files ending in .json are parsed as
// JSON, anything else as YAML.
func LoadProfiles(path string) (*ProfileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return ParseProfiles(data, format)
}

// ParseProfiles decodes and validates a profile document. A section left
// out of the document falls back to the built-in profiles.
func ParseProfiles(data []byte, format string) (*ProfileSet, error) {
	var doc profileDocument
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse profiles JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse profiles YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profiles format %q", format)
	}

	if doc.ICP == nil && doc.Personas == nil {
		return nil, fmt.Errorf("%w: document defines neither icp nor personas", ErrInvalidProfile)
	}

	set := DefaultProfileSet()
	if doc.ICP != nil {
		icp, err := doc.ICP.toProfile()
		if err != nil {
			return nil, fmt.Errorf("icp: %w", err)
		}
		set.ICP = icp
	}
	if doc.Personas != nil {
		set.Personas = make([]RuleProfile, 0, len(doc.Personas))
		for i, persona := range doc.Personas {
			p, err := persona.toProfile()
			if err != nil {
				return nil, fmt.Errorf("persona %d: %w", i, err)
			}
			set.Personas = append(set.Personas, p)
		}
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s profileSpec) toProfile() (RuleProfile, error) {
	profile := RuleProfile{
		Name:        s.Name,
		Description: s.Description,
		Criteria:    make([]Criterion, 0, len(s.Criteria)),
	}
	for _, cs := range s.Criteria {
		if cs.Weight == nil {
			return RuleProfile{}, fmt.Errorf("%w: criterion %q has no weight", ErrInvalidProfile, cs.Name)
		}

		c := Criterion{
			Name:        cs.Name,
			SourceField: cs.SourceField,
			Weight:      *cs.Weight,
			Operator:    Operator(strings.ToLower(strings.TrimSpace(cs.Operator))),
			Value:       attr.FromInterface(cs.Value),
			Min:         cs.Min,
			Max:         cs.Max,
			Description: cs.Description,
		}
		if c.Name == "" {
			c.Name = c.SourceField
		}
		for _, v := range cs.Values {
			c.Values = append(c.Values, attr.FromInterface(v))
		}
		profile.Criteria = append(profile.Criteria, c)
	}
	return profile, nil
}
