// Package ranker turns per-card engine scores into a final recommendation:
// a stable descending ranking with reasoning, confidence, and alternatives.
package ranker

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/engine"
)

// Empty-input reasoning messages for the two ranking modes.
const (
	ReasonNoHeldCards  = "No credit cards added to profile"
	ReasonEmptyCatalog = "No catalog cards available"
)

// maxAlternatives bounds how many runner-up cards a result carries.
const maxAlternatives = 2

// neutralScore substitutes for a card whose scoring failed. Midpoint of
// the 0-100 factor range.
const neutralScore = engine.FactorNeutral

// neutralConfidence applies when the top-ranked card itself failed scoring.
const neutralConfidence = 0.5

// Ranker ranks card lists with the scoring engine.
type Ranker struct {
	engine *engine.Engine
}

// New creates a ranker on the given engine.
func New(e *engine.Engine) *Ranker {
	return &Ranker{engine: e}
}

// Engine exposes the underlying scoring engine.
func (r *Ranker) Engine() *engine.Engine {
	return r.engine
}

type scoredEntry struct {
	card      *domain.Card
	score     float64
	reasoning string
	failed    bool
}

// Rank scores every card, sorts descending (stable, so ties keep input
// order), and assembles the recommendation. A scoring failure for one card
// never aborts the ranking: the card gets a neutral score and the rest
// proceed. emptyReason is the reasoning used when cards is empty; pass
// ReasonNoHeldCards or ReasonEmptyCatalog.
func (r *Ranker) Rank(cards []*domain.Card, tx *domain.Transaction, profile *domain.UserProfile, emptyReason string) *domain.RecommendationResult {
	start := time.Now()

	if emptyReason == "" {
		emptyReason = ReasonNoHeldCards
	}

	result := &domain.RecommendationResult{
		ID:          uuid.New().String(),
		Transaction: tx,
		CreatedAt:   time.Now().UTC(),
	}
	if profile != nil {
		result.UserID = profile.UserID
	}

	if len(cards) == 0 {
		result.Reasoning = emptyReason
		result.Confidence = 0
		result.Metadata = domain.RecommendationMetadata{
			RankMs:        time.Since(start).Milliseconds(),
			EngineVersion: engine.Version,
		}
		return result
	}

	entries := make([]scoredEntry, 0, len(cards))
	for _, card := range cards {
		entry := scoredEntry{card: card}

		score, err := r.engine.Score(card, tx, profile)
		if err != nil {
			cardID := ""
			if card != nil {
				cardID = card.ID
			}
			slog.Warn("card scoring failed, substituting neutral score",
				"card_id", cardID,
				"error", err,
			)
			entry.score = neutralScore
			entry.failed = true
			entry.reasoning = "Score unavailable for this card"
		} else {
			entry.score = score
			entry.reasoning = r.buildReasoning(card, tx, profile)
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	best := entries[0]
	result.RecommendedCard = best.card
	result.Score = best.score
	result.Reasoning = best.reasoning

	if best.failed {
		result.Confidence = neutralConfidence
	} else {
		result.Confidence = SeparationConfidence(entries)
	}

	for _, entry := range entries[1:] {
		if len(result.Alternatives) == maxAlternatives {
			break
		}
		result.Alternatives = append(result.Alternatives, domain.ScoredCard{
			Card:      entry.card,
			Score:     entry.score,
			Reasoning: entry.reasoning,
		})
	}

	result.Metadata = domain.RecommendationMetadata{
		CardsScored:   len(entries),
		RankMs:        time.Since(start).Milliseconds(),
		EngineVersion: engine.Version,
	}

	return result
}

// ScoreOne scores a single card in isolation (the POST /score shape) using
// the midpoint-distance confidence policy.
func (r *Ranker) ScoreOne(card *domain.Card, tx *domain.Transaction, profile *domain.UserProfile) *domain.CardScore {
	score, err := r.engine.Score(card, tx, profile)
	if err != nil {
		cardID := ""
		if card != nil {
			cardID = card.ID
		}
		slog.Warn("single-card scoring failed, substituting neutral score",
			"card_id", cardID,
			"error", err,
		)
		return &domain.CardScore{
			Card:       card,
			Score:      neutralScore,
			Confidence: neutralConfidence,
		}
	}

	return &domain.CardScore{
		Card:       card,
		Score:      score,
		Confidence: MidpointConfidence(score),
		Factors:    r.engine.Factors(card, tx, profile),
	}
}
