package ranker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

// highSpendShare is the fraction of the user's largest category spend above
// which a category counts as a high-spend match.
const highSpendShare = 0.5

// buildReasoning assembles the human-readable clauses for a scored card:
// reward rate, annual fee, signup bonus eligibility, and high-spend match,
// joined with ". ".
func (r *Ranker) buildReasoning(card *domain.Card, tx *domain.Transaction, profile *domain.UserProfile) string {
	var clauses []string

	category := ""
	merchant := ""
	if tx != nil {
		category = tx.Category
		merchant = tx.Merchant
	}

	rate := r.engine.RewardRate(card, category, merchant)
	target := "this purchase"
	if category != "" && category != string(domain.CategoryGeneral) {
		target = category
	}
	if rate > 1 {
		clauses = append(clauses, fmt.Sprintf("Earns %s%% cashback on %s", formatRate(rate), target))
	} else {
		clauses = append(clauses, fmt.Sprintf("Earns a flat %s%% on %s", formatRate(rate), target))
	}

	if card.AnnualFee == 0 {
		clauses = append(clauses, "No annual fee")
	} else {
		clauses = append(clauses, fmt.Sprintf("Annual fee: $%s", formatRate(card.AnnualFee)))
	}

	if card.SignupBonus.Amount > 0 && (profile == nil || !profile.HoldsCard(card.ID)) {
		currency := card.SignupBonus.Currency
		if currency == "" {
			currency = "points"
		}
		clauses = append(clauses, fmt.Sprintf("Eligible for signup bonus: %s %s",
			formatRate(card.SignupBonus.Amount), currency))
	}

	if profile != nil && category != "" {
		if pref, ok := profile.Preference(category); ok {
			if max := maxPreferenceSpending(profile); max > 0 && pref.MonthlySpending/max > highSpendShare {
				clauses = append(clauses, fmt.Sprintf("Matches your high spending in %s", category))
			}
		}
	}

	return strings.Join(clauses, ". ")
}

func maxPreferenceSpending(profile *domain.UserProfile) float64 {
	var max float64
	for _, pref := range profile.SpendingPreferences {
		if pref.MonthlySpending > max {
			max = pref.MonthlySpending
		}
	}
	return max
}

// formatRate prints a number without trailing zeros: 2 not 2.0, 1.5 as is.
func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
