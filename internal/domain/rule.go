package domain

// EligibilityRule is an operator-defined CEL expression that gates which
// catalog cards may be suggested in catalog-ranking mode. The expression
// must evaluate to bool; false excludes the card. An empty CardID applies
// the rule to every card.
type EligibilityRule struct {
	ID          string `json:"id"`
	CardID      string `json:"cardId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// CEL expression over amount, category, merchant, credit_score,
	// monthly_income, holds_card
	Expression string `json:"expression"`

	Enabled bool `json:"enabled"`
}

// CardSuggestion proposes a catalog card the user does not hold for a
// category they spend heavily in.
type CardSuggestion struct {
	Category         string  `json:"category"`
	CurrentSpending  float64 `json:"currentSpending"`
	SuggestedCard    *Card   `json:"suggestedCard"`
	PotentialSavings float64 `json:"potentialSavings"` // per month
}

// SpendingAnalysis is the payload of GET /users/analysis.
type SpendingAnalysis struct {
	TotalTransactions        int64            `json:"totalTransactions"`
	AverageTransactionAmount float64          `json:"averageTransactionAmount"`
	TotalCards               int              `json:"totalCards"`
	PredictedNextCategory    string           `json:"predictedNextCategory"`
	Suggestions              []CardSuggestion `json:"suggestions"`
}
