package domain

import (
	"time"
)

// ScoredCard pairs a catalog card with its heuristic score and reasoning.
type ScoredCard struct {
	Card      *Card   `json:"card"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// RecommendationResult is the output of ranking cards for a transaction.
// RecommendedCard is nil when the user has no rankable cards; callers must
// branch on that rather than treat it as an error.
type RecommendationResult struct {
	ID     string `json:"id"`
	UserID string `json:"userId,omitempty"`

	RecommendedCard *Card   `json:"recommendedCard"`
	Score           float64 `json:"score"`
	Reasoning       string  `json:"reasoning"`
	Confidence      float64 `json:"confidence"`

	Alternatives []ScoredCard `json:"alternatives,omitempty"`

	Transaction *Transaction `json:"transaction,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`

	Metadata RecommendationMetadata `json:"metadata"`
}

// RecommendationMetadata carries processing information.
type RecommendationMetadata struct {
	TraceID       string `json:"traceId,omitempty"`
	CardsScored   int    `json:"cardsScored"`
	RankMs        int64  `json:"rankMs"`
	TotalMs       int64  `json:"totalMs,omitempty"`
	EngineVersion string `json:"engineVersion"`
}

// CardScore is the result of scoring a single card in isolation
// (POST /score). Confidence uses the midpoint-distance policy, unlike the
// separation policy used when ranking a list.
type CardScore struct {
	Card       *Card              `json:"card"`
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Factors    map[string]float64 `json:"factors,omitempty"`
}
