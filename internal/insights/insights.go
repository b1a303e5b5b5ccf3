// Package insights derives spending analysis and new-card suggestions from
// a user's profile and the card catalog.
package insights

import (
	"sort"

	"github.com/VihaanShah2004/cardwise/internal/catalog"
	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/engine"
	"github.com/VihaanShah2004/cardwise/internal/profile"
)

// highSpendThreshold is the monthly category spend above which a category
// qualifies for a new-card suggestion.
const highSpendThreshold = 500.0

// baselineRate is the assumed percent rate a user earns without a
// category-optimal card. Savings estimates measure the lift over it.
const baselineRate = 1.0

// Service computes spending analyses.
type Service struct {
	catalog *catalog.Catalog
	engine  *engine.Engine
}

// NewService creates an insights service.
func NewService(cat *catalog.Catalog, eng *engine.Engine) *Service {
	return &Service{
		catalog: cat,
		engine:  eng,
	}
}

// Analyze builds the spending analysis for a profile: aggregate stats, the
// predicted next category, and suggestions for high-spend categories the
// user has no optimal card for.
func (s *Service) Analyze(p *domain.UserProfile) *domain.SpendingAnalysis {
	analysis := &domain.SpendingAnalysis{
		PredictedNextCategory: profile.PredictNextCategory(p),
	}
	if p == nil {
		return analysis
	}

	analysis.TotalTransactions = p.TotalTransactions
	analysis.AverageTransactionAmount = p.AverageTransactionAmount
	analysis.TotalCards = len(p.ActiveHoldings())
	analysis.Suggestions = s.suggestions(p)

	return analysis
}

// suggestions finds, for each high-spend category, the best unheld catalog
// card whose rate beats what the user's held cards already earn there.
func (s *Service) suggestions(p *domain.UserProfile) []domain.CardSuggestion {
	var out []domain.CardSuggestion

	prefs := make([]domain.SpendingPreference, len(p.SpendingPreferences))
	copy(prefs, p.SpendingPreferences)
	sort.SliceStable(prefs, func(i, j int) bool {
		return prefs[i].MonthlySpending > prefs[j].MonthlySpending
	})

	for _, pref := range prefs {
		if pref.MonthlySpending <= highSpendThreshold {
			continue
		}

		heldRate := s.bestHeldRate(p, pref.Category)
		best := s.bestUnheldCard(p, pref.Category, heldRate)
		if best == nil {
			continue
		}

		rate := s.engine.RewardRate(best, pref.Category, "")
		savings := (rate - baselineRate) * pref.MonthlySpending / 100

		out = append(out, domain.CardSuggestion{
			Category:         pref.Category,
			CurrentSpending:  pref.MonthlySpending,
			SuggestedCard:    best,
			PotentialSavings: savings,
		})
	}

	return out
}

// bestHeldRate returns the highest rate the user's active holdings pay in
// a category. Unknown held card IDs contribute the baseline.
func (s *Service) bestHeldRate(p *domain.UserProfile, category string) float64 {
	best := baselineRate
	for _, holding := range p.ActiveHoldings() {
		card, err := s.catalog.ByID(holding.CardID)
		if err != nil {
			continue
		}
		if rate := s.engine.RewardRate(card, category, ""); rate > best {
			best = rate
		}
	}
	return best
}

// bestUnheldCard returns the highest-rate catalog card for the category
// that the user does not hold and that beats the held rate. Nil when the
// user already holds an optimal card.
func (s *Service) bestUnheldCard(p *domain.UserProfile, category string, heldRate float64) *domain.Card {
	var best *domain.Card
	var bestRate float64

	for _, card := range s.catalog.List() {
		if p.HoldsCard(card.ID) {
			continue
		}
		rate := s.engine.RewardRate(card, category, "")
		if rate <= heldRate {
			continue
		}
		if best == nil || rate > bestRate {
			best = card
			bestRate = rate
		}
	}

	return best
}
