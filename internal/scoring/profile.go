package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
)

// ErrInvalidProfile is returned when a profile definition cannot be used
var ErrInvalidProfile = errors.New("invalid rule profile")

// Operator selects how a criterion compares the actual attribute value
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpRange    Operator = "range"
	OpIn       Operator = "in"
)

// IsValid returns true if op is a supported operator
func (op Operator) IsValid() bool {
	switch op {
	case OpEquals, OpContains, OpRange, OpIn:
		return true
	}
	return false
}

// Criterion is one weighted test against a single attribute
type Criterion struct {
	Name        string       `json:"name"`
	SourceField string       `json:"source_field"`
	Weight      float64      `json:"weight"`
	Operator    Operator     `json:"operator"`
	Value       attr.Value   `json:"value"`
	Min         *float64     `json:"min,omitempty"`
	Max         *float64     `json:"max,omitempty"`
	Values      []attr.Value `json:"values,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Expected renders the criterion's acceptance condition for display
func (c Criterion) Expected() string {
	switch c.Operator {
	case OpEquals:
		return c.Value.String()
	case OpContains:
		return fmt.Sprintf("contains %q", c.Value.String())
	case OpRange:
		lo, hi := "-inf", "+inf"
		if c.Min != nil {
			lo = attr.Number(*c.Min).String()
		}
		if c.Max != nil {
			hi = attr.Number(*c.Max).String()
		}
		return fmt.Sprintf("[%s, %s]", lo, hi)
	case OpIn:
		return "one of " + attr.List(c.Values...).String()
	}
	return string(c.Operator)
}

// Validate checks the criterion is usable by the evaluator
func (c Criterion) Validate() error {
	if strings.TrimSpace(c.SourceField) == "" {
		return fmt.Errorf("%w: criterion %q has no source field", ErrInvalidProfile, c.Name)
	}
	if math.IsNaN(c.Weight) || c.Weight < 0 || c.Weight > 1 {
		return fmt.Errorf("%w: criterion %q weight %v outside [0,1]", ErrInvalidProfile, c.Name, c.Weight)
	}

	switch c.Operator {
	case OpEquals:
		if c.Value.IsAbsent() {
			return fmt.Errorf("%w: criterion %q (equals) needs a value", ErrInvalidProfile, c.Name)
		}
	case OpContains:
		if _, ok := c.Value.AsString(); !ok {
			return fmt.Errorf("%w: criterion %q (contains) needs a string value", ErrInvalidProfile, c.Name)
		}
	case OpRange:
		if c.Min == nil && c.Max == nil {
			return fmt.Errorf("%w: criterion %q (range) needs min or max", ErrInvalidProfile, c.Name)
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return fmt.Errorf("%w: criterion %q (range) min %v > max %v", ErrInvalidProfile, c.Name, *c.Min, *c.Max)
		}
	case OpIn:
		if len(c.Values) == 0 {
			return fmt.Errorf("%w: criterion %q (in) needs values", ErrInvalidProfile, c.Name)
		}
	default:
		return fmt.Errorf("%w: criterion %q has unknown operator %q", ErrInvalidProfile, c.Name, c.Operator)
	}
	return nil
}

// RuleProfile is a named, ordered set of weighted criteria. The same shape
// serves the ICP profile and every persona profile.
type RuleProfile struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Criteria    []Criterion `json:"criteria"`
}

// TotalWeight sums every criterion weight
func (p RuleProfile) TotalWeight() float64 {
	var total float64
	for _, c := range p.Criteria {
		total += c.Weight
	}
	return total
}

// Validate checks the profile and all of its criteria. A profile whose
// weights sum to zero is valid; it simply always scores 0.
func (p RuleProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: profile has no name", ErrInvalidProfile)
	}
	for _, c := range p.Criteria {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return nil
}

// Tier is the ICP classification bucket
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// TierForScore maps a 0-100 match score onto an ICP tier
func TierForScore(score int) Tier {
	switch {
	case score >= 80:
		return TierA
	case score >= 60:
		return TierB
	case score >= 40:
		return TierC
	default:
		return TierD
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}
