package scoring

import "github.com/ajharbinger/intent-signal-hub/internal/attr"

func stringValues(values ...string) []attr.Value {
	out := make([]attr.Value, 0, len(values))
	for _, v := range values {
		out = append(out, attr.String(v))
	}
	return out
}

// GetDefaultICPProfile returns the built-in ideal customer profile
func GetDefaultICPProfile() RuleProfile {
	return RuleProfile{
		Name:        "Default ICP",
		Description: "Mid-market technology companies in core markets",
		Criteria: []Criterion{
			{
				Name:        "Company size",
				SourceField: "employeeCount",
				Weight:      0.25,
				Operator:    OpRange,
				Min:         float64Ptr(50),
				Max:         float64Ptr(5000),
				Description: "Between 50 and 5000 employees",
			},
			{
				Name:        "Target industry",
				SourceField: "industry",
				Weight:      0.25,
				Operator:    OpIn,
				Values:      stringValues("Technology", "Software", "SaaS", "Information Technology", "Financial Services"),
				Description: "Operates in a target industry",
			},
			{
				Name:        "Revenue band",
				SourceField: "annualRevenue",
				Weight:      0.2,
				Operator:    OpRange,
				Min:         float64Ptr(1e6),
				Max:         float64Ptr(5e8),
				Description: "Annual revenue between $1M and $500M",
			},
			{
				Name:        "Has web domain",
				SourceField: "domain",
				Weight:      0.1,
				Operator:    OpContains,
				Value:       attr.String("."),
				Description: "Known company domain",
			},
			{
				Name:        "Core market",
				SourceField: "country",
				Weight:      0.2,
				Operator:    OpIn,
				Values:      stringValues("United States", "Canada", "United Kingdom", "Germany", "Australia"),
				Description: "Headquartered in a core market",
			},
		},
	}
}

// GetDefaultPersonaProfiles returns the built-in buyer personas in
// evaluation order
func GetDefaultPersonaProfiles() []RuleProfile {
	return []RuleProfile{
		{
			Name:        "Executive Buyer",
			Description: "Senior decision maker with budget authority",
			Criteria: []Criterion{
				{Name: "Executive seniority", SourceField: "seniority", Weight: 0.6, Operator: OpIn,
					Values: stringValues("c_suite", "c-level", "executive", "vp", "owner", "founder", "partner")},
				{Name: "Leadership department", SourceField: "department", Weight: 0.4, Operator: OpIn,
					Values: stringValues("executive", "finance", "general management")},
			},
		},
		{
			Name:        "Technical Evaluator",
			Description: "Hands-on evaluator of the product",
			Criteria: []Criterion{
				{Name: "Technical department", SourceField: "department", Weight: 0.5, Operator: OpIn,
					Values: stringValues("engineering", "it", "information technology", "product", "data")},
				{Name: "Engineering title", SourceField: "jobTitle", Weight: 0.3, Operator: OpContains,
					Value: attr.String("engineer")},
				{Name: "Practitioner seniority", SourceField: "seniority", Weight: 0.2, Operator: OpIn,
					Values: stringValues("director", "manager", "senior", "lead")},
			},
		},
		{
			Name:        "Marketing Champion",
			Description: "Internal champion in the marketing organization",
			Criteria: []Criterion{
				{Name: "Marketing department", SourceField: "department", Weight: 0.6, Operator: OpIn,
					Values: stringValues("marketing", "growth", "demand generation")},
				{Name: "Marketing title", SourceField: "jobTitle", Weight: 0.4, Operator: OpContains,
					Value: attr.String("marketing")},
			},
		},
		{
			Name:        "Sales Leader",
			Description: "Owner of the revenue number",
			Criteria: []Criterion{
				{Name: "Sales department", SourceField: "department", Weight: 0.6, Operator: OpIn,
					Values: stringValues("sales", "business development", "revenue")},
				{Name: "Sales title", SourceField: "jobTitle", Weight: 0.4, Operator: OpContains,
					Value: attr.String("sales")},
			},
		},
		{
			Name:        "Operations Manager",
			Description: "Runs day-to-day operations",
			Criteria: []Criterion{
				{Name: "Operations department", SourceField: "department", Weight: 0.5, Operator: OpIn,
					Values: stringValues("operations", "supply chain", "procurement")},
				{Name: "Operations title", SourceField: "jobTitle", Weight: 0.3, Operator: OpContains,
					Value: attr.String("operations")},
				{Name: "Management seniority", SourceField: "seniority", Weight: 0.2, Operator: OpIn,
					Values: stringValues("manager", "director")},
			},
		},
	}
}
