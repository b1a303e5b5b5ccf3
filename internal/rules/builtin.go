package rules

import "github.com/VihaanShah2004/cardwise/internal/domain"

// BuiltinRules returns the default eligibility rule set loaded when the
// repository carries no operator-defined rules.
func BuiltinRules() []*domain.EligibilityRule {
	return []*domain.EligibilityRule{
		{
			ID:          "builtin-credit-floor",
			Name:        "Minimum credit tier",
			Description: "Never suggest cards to users below the Fair tier",
			Expression:  `credit_score >= 2`,
			Enabled:     true,
		},
	}
}
