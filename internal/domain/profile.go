package domain

import (
	"time"
)

// SpendingPreference captures how much a user spends per canonical category
// each month. Categories are unique within a profile.
type SpendingPreference struct {
	Category        string  `json:"category"`
	MonthlySpending float64 `json:"monthlySpending"`
	Priority        int     `json:"priority"` // 1-5 scale
}

// TimePatterns buckets spend totals by time of day and day of week.
// Maintained by the profile aggregator, never by the engine.
type TimePatterns struct {
	Weekday   float64 `json:"weekday"`
	Weekend   float64 `json:"weekend"`
	Morning   float64 `json:"morning"`
	Afternoon float64 `json:"afternoon"`
	Evening   float64 `json:"evening"`
}

// SeasonalPatterns buckets spend totals by season.
type SeasonalPatterns struct {
	Spring float64 `json:"spring"`
	Summer float64 `json:"summer"`
	Fall   float64 `json:"fall"`
	Winter float64 `json:"winter"`
}

// UserProfile is an immutable per-call snapshot of a user's recommendation
// inputs. The engine never mutates it; the aggregator produces updated
// snapshots from recorded transactions.
type UserProfile struct {
	UserID string `json:"userId"`

	CreditScore   CreditTier `json:"creditScore"`
	MonthlyIncome float64    `json:"monthlyIncome"`

	// Aggregates derived from transaction history
	AverageTransactionAmount float64 `json:"averageTransactionAmount"`
	TotalTransactions        int64   `json:"totalTransactions"`

	SpendingPreferences []SpendingPreference `json:"spendingPreferences"`
	CreditCards         []CardHolding        `json:"creditCards"`

	TimePatterns     TimePatterns     `json:"timePatterns"`
	SeasonalPatterns SeasonalPatterns `json:"seasonalPatterns"`

	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// HoldsCard reports whether the user has added the card, active or not.
// Signup bonus eligibility depends on this, not on IsActive.
func (p *UserProfile) HoldsCard(cardID string) bool {
	for _, h := range p.CreditCards {
		if h.CardID == cardID {
			return true
		}
	}
	return false
}

// ActiveHoldings returns the holdings that participate in held-card ranking.
func (p *UserProfile) ActiveHoldings() []CardHolding {
	out := make([]CardHolding, 0, len(p.CreditCards))
	for _, h := range p.CreditCards {
		if h.IsActive {
			out = append(out, h)
		}
	}
	return out
}

// Preference returns the spending preference for a category, if present.
func (p *UserProfile) Preference(category string) (SpendingPreference, bool) {
	for _, pref := range p.SpendingPreferences {
		if pref.Category == category {
			return pref, true
		}
	}
	return SpendingPreference{}, false
}

// TotalPreferenceSpending sums monthly spending across all preferences.
func (p *UserProfile) TotalPreferenceSpending() float64 {
	var total float64
	for _, pref := range p.SpendingPreferences {
		total += pref.MonthlySpending
	}
	return total
}

// EffectiveCreditScore returns the profile tier, defaulting to Good when
// the profile never recorded one.
func (p *UserProfile) EffectiveCreditScore() CreditTier {
	if p.CreditScore.Valid() {
		return p.CreditScore
	}
	return TierGood
}
