package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
)

// Evaluator scores attribute maps against weighted rule profiles. It holds
// one ICP profile and an ordered list of persona profiles.
type Evaluator struct {
	icp      RuleProfile
	personas []RuleProfile
	now      func() time.Time
}

// NewEvaluator creates an evaluator for the given profiles
func NewEvaluator(icp RuleProfile, personas []RuleProfile) *Evaluator {
	cp := make([]RuleProfile, len(personas))
	copy(cp, personas)
	return &Evaluator{
		icp:      icp,
		personas: cp,
		now:      time.Now,
	}
}

// NewDefaultEvaluator creates an evaluator with the built-in profiles
func NewDefaultEvaluator() *Evaluator {
	return NewEvaluator(GetDefaultICPProfile(), GetDefaultPersonaProfiles())
}

// ICPProfile returns the configured ICP profile
func (e *Evaluator) ICPProfile() RuleProfile {
	return e.icp
}

// PersonaProfiles returns the configured persona profiles in declared order
func (e *Evaluator) PersonaProfiles() []RuleProfile {
	cp := make([]RuleProfile, len(e.personas))
	copy(cp, e.personas)
	return cp
}

// CriterionMatch pairs a criterion with the value it was tested against
type CriterionMatch struct {
	Criterion Criterion  `json:"criterion"`
	Actual    attr.Value `json:"actual"`
	Expected  string     `json:"expected"`
}

// Evaluation is the outcome of one profile against one attribute map
type Evaluation struct {
	Profile   string           `json:"profile"`
	Score     int              `json:"score"`
	Matched   []CriterionMatch `json:"matched"`
	Unmatched []CriterionMatch `json:"unmatched"`
}

// MatchResult is a classified evaluation. Classification holds the ICP tier
// for companies and the winning persona name for contacts; it is empty only
// when no persona profiles are configured.
type MatchResult struct {
	SubjectID      string           `json:"subject_id"`
	Profile        string           `json:"profile,omitempty"`
	Score          int              `json:"score"`
	Matched        []CriterionMatch `json:"matched"`
	Unmatched      []CriterionMatch `json:"unmatched"`
	Classification string           `json:"classification"`
	ScoredAt       time.Time        `json:"scored_at"`
}

// EvaluateProfile tests every criterion of profile against attrs. The score
// is the matched share of total weight on a 0-100 scale; a profile with no
// weight scores 0.
func (e *Evaluator) EvaluateProfile(attrs attr.Map, profile RuleProfile) Evaluation {
	result := Evaluation{
		Profile:   profile.Name,
		Matched:   []CriterionMatch{},
		Unmatched: []CriterionMatch{},
	}

	var matchedWeight, totalWeight float64
	for _, criterion := range profile.Criteria {
		actual := attrs.Get(criterion.SourceField)
		match := CriterionMatch{
			Criterion: criterion,
			Actual:    actual,
			Expected:  criterion.Expected(),
		}

		totalWeight += criterion.Weight
		if e.evaluateCondition(actual, criterion) {
			matchedWeight += criterion.Weight
			result.Matched = append(result.Matched, match)
		} else {
			result.Unmatched = append(result.Unmatched, match)
		}
	}

	if totalWeight > 0 {
		result.Score = int(math.Round(100 * matchedWeight / totalWeight))
	}
	return result
}

// ClassifyCompany scores a company against the ICP profile and assigns a tier
func (e *Evaluator) ClassifyCompany(subjectID string, attrs attr.Map) MatchResult {
	eval := e.EvaluateProfile(attrs, e.icp)
	return MatchResult{
		SubjectID:      subjectID,
		Profile:        eval.Profile,
		Score:          eval.Score,
		Matched:        eval.Matched,
		Unmatched:      eval.Unmatched,
		Classification: string(TierForScore(eval.Score)),
		ScoredAt:       e.now(),
	}
}

// ClassifyContact evaluates every persona profile in declared order and
// keeps the first profile reaching the highest score.
func (e *Evaluator) ClassifyContact(subjectID string, attrs attr.Map) MatchResult {
	result := MatchResult{
		SubjectID: subjectID,
		Matched:   []CriterionMatch{},
		Unmatched: []CriterionMatch{},
		ScoredAt:  e.now(),
	}

	var best *Evaluation
	for _, profile := range e.personas {
		eval := e.EvaluateProfile(attrs, profile)
		if best == nil || eval.Score > best.Score {
			best = &eval
		}
	}
	if best == nil {
		return result
	}

	result.Profile = best.Profile
	result.Score = best.Score
	result.Matched = best.Matched
	result.Unmatched = best.Unmatched
	result.Classification = best.Profile
	return result
}

// evaluateCondition applies one criterion to an actual value. Absent values
// never match.
func (e *Evaluator) evaluateCondition(actual attr.Value, criterion Criterion) bool {
	if actual.IsAbsent() {
		return false
	}

	switch criterion.Operator {
	case OpEquals:
		return actual.Equal(criterion.Value)
	case OpContains:
		return e.evaluateContains(actual, criterion.Value)
	case OpRange:
		return e.evaluateRange(actual, criterion.Min, criterion.Max)
	case OpIn:
		return e.evaluateInList(actual, criterion.Values)
	default:
		return false
	}
}

// evaluateContains is a case-insensitive substring test on string values
func (e *Evaluator) evaluateContains(actual, expected attr.Value) bool {
	actualStr, ok := actual.AsString()
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(actualStr), strings.ToLower(expected.String()))
}

// evaluateRange checks numeric containment in [min, max]; nil bounds are open
func (e *Evaluator) evaluateRange(actual attr.Value, min, max *float64) bool {
	n, ok := actual.AsNumber()
	if !ok || math.IsNaN(n) {
		return false
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	}
	return n >= lo && n <= hi
}

// evaluateInList checks membership; strings compare case-insensitively
func (e *Evaluator) evaluateInList(actual attr.Value, values []attr.Value) bool {
	actualStr, isString := actual.AsString()
	for _, candidate := range values {
		if isString {
			if s, ok := candidate.AsString(); ok && strings.EqualFold(s, actualStr) {
				return true
			}
			continue
		}
		if actual.Equal(candidate) {
			return true
		}
	}
	return false
}
