// Package profile maintains user profile aggregates from recorded
// transactions: running averages, per-category monthly spending, and
// time/seasonal spend buckets. The aggregator runs asynchronously behind
// the event bus so recommendation calls always read a precomputed snapshot.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/VihaanShah2004/cardwise/internal/category"
	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/metrics"
	"github.com/VihaanShah2004/cardwise/internal/repository"
)

// preferenceWindow is the transaction history window used to rebuild
// per-category monthly spending.
const preferenceWindow = 30 * 24 * time.Hour

// maxPriority is the top of the 1-5 preference priority scale.
const maxPriority = 5

// cacheTTL bounds how stale a cached profile snapshot can get.
const cacheTTL = 15 * time.Minute

// Aggregator folds transactions into profile snapshots.
type Aggregator struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewAggregator creates a profile aggregator.
func NewAggregator(repo domain.Repository, cache domain.Cache) *Aggregator {
	return &Aggregator{
		repo:  repo,
		cache: cache,
	}
}

// Apply folds a single transaction into the profile's running aggregates.
// Preferences are not touched here; RebuildPreferences recomputes them from
// the history window.
func Apply(profile *domain.UserProfile, tx *domain.Transaction) {
	if profile == nil || tx == nil {
		return
	}

	total := float64(profile.TotalTransactions)
	profile.AverageTransactionAmount = (profile.AverageTransactionAmount*total + tx.Amount) / (total + 1)
	profile.TotalTransactions++

	ts := tx.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	switch ts.Weekday() {
	case time.Saturday, time.Sunday:
		profile.TimePatterns.Weekend += tx.Amount
	default:
		profile.TimePatterns.Weekday += tx.Amount
	}

	switch hour := ts.Hour(); {
	case hour < 12:
		profile.TimePatterns.Morning += tx.Amount
	case hour < 17:
		profile.TimePatterns.Afternoon += tx.Amount
	default:
		profile.TimePatterns.Evening += tx.Amount
	}

	switch ts.Month() {
	case time.March, time.April, time.May:
		profile.SeasonalPatterns.Spring += tx.Amount
	case time.June, time.July, time.August:
		profile.SeasonalPatterns.Summer += tx.Amount
	case time.September, time.October, time.November:
		profile.SeasonalPatterns.Fall += tx.Amount
	default:
		profile.SeasonalPatterns.Winter += tx.Amount
	}
}

// RebuildPreferences recomputes per-category monthly spending from the
// transaction window, ranking categories into the 1-5 priority scale by
// spend. Categories with no recent transactions drop off the preference
// list unless the user set them explicitly with a zero-spend entry.
func RebuildPreferences(profile *domain.UserProfile, txs []*domain.Transaction) {
	if profile == nil {
		return
	}

	spend := make(map[string]float64)
	for _, tx := range txs {
		c := category.Normalize(tx.Category, tx.Merchant)
		spend[string(c)] += tx.Amount
	}

	// Keep user-declared preferences for categories without recent spend.
	prefs := make([]domain.SpendingPreference, 0, len(spend))
	for _, existing := range profile.SpendingPreferences {
		if _, ok := spend[existing.Category]; !ok {
			prefs = append(prefs, existing)
		}
	}
	for cat, amount := range spend {
		prefs = append(prefs, domain.SpendingPreference{
			Category:        cat,
			MonthlySpending: amount,
		})
	}

	sort.SliceStable(prefs, func(i, j int) bool {
		return prefs[i].MonthlySpending > prefs[j].MonthlySpending
	})
	for i := range prefs {
		priority := maxPriority - i
		if priority < 1 {
			priority = 1
		}
		prefs[i].Priority = priority
	}

	profile.SpendingPreferences = prefs
}

// Refresh folds a newly recorded transaction into the user's profile,
// rebuilds preferences from the history window, persists the snapshot, and
// refreshes the cache.
func (a *Aggregator) Refresh(ctx context.Context, tx *domain.Transaction) (*domain.UserProfile, error) {
	if tx == nil || tx.UserID == "" {
		return nil, fmt.Errorf("transaction with userID is required")
	}

	p, err := a.repo.GetProfile(ctx, tx.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		p = &domain.UserProfile{UserID: tx.UserID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	Apply(p, tx)

	since := time.Now().Add(-preferenceWindow)
	txs, err := a.repo.GetTransactionsByUser(ctx, tx.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction window: %w", err)
	}
	RebuildPreferences(p, txs)

	p.UpdatedAt = time.Now().UTC()
	if err := a.repo.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if a.cache != nil {
		_ = a.cache.SetProfile(ctx, tx.UserID, p, cacheTTL)
	}
	metrics.ProfileRefreshes.Inc()

	return p, nil
}

// PredictNextCategory guesses the user's next spending category from the
// preference list, falling back to general when there is no history.
func PredictNextCategory(profile *domain.UserProfile) string {
	if profile == nil || len(profile.SpendingPreferences) == 0 {
		return string(domain.CategoryGeneral)
	}

	best := profile.SpendingPreferences[0]
	for _, pref := range profile.SpendingPreferences[1:] {
		if pref.MonthlySpending > best.MonthlySpending {
			best = pref
		}
	}
	if best.MonthlySpending == 0 {
		return string(domain.CategoryGeneral)
	}
	return best.Category
}
