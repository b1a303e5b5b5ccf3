// Package engine implements the weighted-heuristic card scoring engine.
//
// A card's score is a weighted sum of five independently-normalized
// factors: reward rate, annual fee, user preference, signup bonus, and
// credit score compatibility. The engine is pure computation: it never
// mutates its inputs, performs no I/O, and is safe for concurrent use.
package engine

import (
	"fmt"

	"github.com/VihaanShah2004/cardwise/internal/category"
	"github.com/VihaanShah2004/cardwise/internal/domain"
)

// Version identifies the scoring heuristic generation.
const Version = "cardwise-heuristic-1"

// Factor scale midpoint. Each factor lands roughly in 0-100 with 50 as the
// neutral "insufficient data" value.
const (
	factorMax     = 100.0
	FactorNeutral = 50.0
)

// Engine scores catalog cards against a transaction and user profile.
type Engine struct {
	weights  domain.Weights
	rotating *category.RotatingPolicy
}

// New creates an engine with the given factor weights and rotating-category
// policy. Weights must sum to 1.
func New(weights domain.Weights, rotating *category.RotatingPolicy) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine weights: %w", err)
	}
	if rotating == nil {
		rotating = category.NewRotatingPolicy()
	}
	return &Engine{weights: weights, rotating: rotating}, nil
}

// Weights returns the configured factor weights.
func (e *Engine) Weights() domain.Weights {
	return e.weights
}

// RewardRate resolves the reward rate a card pays for a transaction.
// Priority: category-specific rate, then the rotating rate when the
// normalized category is active this quarter, then the "other" fallback.
// A catalog card without even an "other" entry is a configuration error;
// it degrades to rate 1 rather than failing the scoring call.
func (e *Engine) RewardRate(card *domain.Card, txCategory, merchant string) float64 {
	normalized := category.Normalize(txCategory, merchant)

	if rate, ok := card.Rewards.Rate(string(normalized)); ok {
		return rate
	}
	if rate, ok := card.Rewards.Rotating(); ok && e.rotating.IsActive(normalized) {
		return rate
	}
	if rate, ok := card.Rewards.Other(); ok {
		return rate
	}
	return 1
}

// Score computes the heuristic score for one card. The result is always
// non-negative. An error is returned only for a structurally malformed
// catalog entry (nil card or missing rewards table); callers ranking a list
// are expected to contain that failure per card.
func (e *Engine) Score(card *domain.Card, tx *domain.Transaction, profile *domain.UserProfile) (float64, error) {
	if card == nil {
		return 0, fmt.Errorf("nil card")
	}
	if card.Rewards == nil {
		return 0, fmt.Errorf("card %s has no rewards table", card.ID)
	}
	if tx == nil {
		tx = &domain.Transaction{}
	}
	if profile == nil {
		profile = &domain.UserProfile{}
	}

	score := e.rewardFactor(card, tx)*e.weights.RewardRate +
		e.annualFeeFactor(card, profile)*e.weights.AnnualFee +
		e.preferenceFactor(card, tx, profile)*e.weights.UserPreference +
		e.signupBonusFactor(card, profile)*e.weights.SignupBonus +
		e.creditScoreFactor(card, profile)*e.weights.CreditScore

	// Floor only. The weighted reward factor can legitimately exceed 100
	// for high-rate cards; no upper clamp.
	if score < 0 {
		score = 0
	}
	return score, nil
}

// Factors returns the unweighted factor values for a card, keyed by factor
// name. Used by the single-card scoring endpoint for explanations.
func (e *Engine) Factors(card *domain.Card, tx *domain.Transaction, profile *domain.UserProfile) map[string]float64 {
	if card == nil || card.Rewards == nil {
		return nil
	}
	if tx == nil {
		tx = &domain.Transaction{}
	}
	if profile == nil {
		profile = &domain.UserProfile{}
	}
	return map[string]float64{
		"rewardRate":     e.rewardFactor(card, tx),
		"annualFee":      e.annualFeeFactor(card, profile),
		"userPreference": e.preferenceFactor(card, tx, profile),
		"signupBonus":    e.signupBonusFactor(card, profile),
		"creditScore":    e.creditScoreFactor(card, profile),
	}
}

// rewardFactor scales the percent reward rate by 100, so a 2% card
// contributes 200 before weighting. Not normalized against the other
// factors; ranking only depends on relative scores.
func (e *Engine) rewardFactor(card *domain.Card, tx *domain.Transaction) float64 {
	return e.RewardRate(card, tx.Category, tx.Merchant) * factorMax
}

// annualFeeFactor favors fee-free cards outright and otherwise penalizes
// the fee against the user's estimated monthly spend.
func (e *Engine) annualFeeFactor(card *domain.Card, profile *domain.UserProfile) float64 {
	if card.AnnualFee == 0 {
		return factorMax
	}

	monthlySpend := profile.AverageTransactionAmount * float64(profile.TotalTransactions) / 12
	if monthlySpend == 0 {
		return FactorNeutral // no history to judge the fee against
	}

	feeRatio := (card.AnnualFee / 12) / monthlySpend
	impact := factorMax - feeRatio*1000
	if impact < 0 {
		return 0
	}
	return impact
}

// preferenceFactor weights the card's reward rate by the share of the
// user's stated spending that falls in the transaction's category.
func (e *Engine) preferenceFactor(card *domain.Card, tx *domain.Transaction, profile *domain.UserProfile) float64 {
	normalized := category.Normalize(tx.Category, tx.Merchant)

	pref, ok := profile.Preference(string(normalized))
	if !ok {
		return FactorNeutral
	}
	total := profile.TotalPreferenceSpending()
	if total == 0 {
		return FactorNeutral
	}

	categoryRatio := pref.MonthlySpending / total
	return categoryRatio * e.RewardRate(card, tx.Category, tx.Merchant) * factorMax
}

// signupBonusFactor scores the bonus against the user's monthly income as a
// spending-capacity proxy.
func (e *Engine) signupBonusFactor(card *domain.Card, profile *domain.UserProfile) float64 {
	if card.SignupBonus.Amount == 0 {
		return 0
	}

	capacity := profile.MonthlyIncome
	value := (card.SignupBonus.Amount / 100) * (capacity / 1000)
	if value > factorMax {
		return factorMax
	}
	return value
}

// creditScoreFactor is a soft compatibility signal, never an eligibility
// gate: a card above the user's tier still scores, just lower.
func (e *Engine) creditScoreFactor(card *domain.Card, profile *domain.UserProfile) float64 {
	user := profile.EffectiveCreditScore()
	required := card.CreditScoreRequired
	if !required.Valid() {
		required = domain.TierGood
	}

	switch {
	case user >= required:
		return factorMax
	case user == required-1:
		return 80
	default:
		return FactorNeutral
	}
}
