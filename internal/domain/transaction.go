package domain

import (
	"time"
)

// Transaction is the purchase context a recommendation is computed for.
// Amount, Category, and Merchant are all optional: the engine applies
// neutral defaults rather than rejecting sparse input.
type Transaction struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Amount      float64   `json:"amount"`
	Merchant    string    `json:"merchant"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// RecommendRequest is the API request payload for POST /recommend.
type RecommendRequest struct {
	Amount      float64 `json:"amount" validate:"gte=0"`
	Merchant    string  `json:"merchant" validate:"max=200"`
	Category    string  `json:"category" validate:"max=100"`
	Description string  `json:"description,omitempty" validate:"max=500"`
}

// ToTransaction converts a request to a Transaction for the engine.
func (r *RecommendRequest) ToTransaction(userID string) *Transaction {
	return &Transaction{
		UserID:      userID,
		Amount:      r.Amount,
		Merchant:    r.Merchant,
		Category:    r.Category,
		Description: r.Description,
		Timestamp:   time.Now().UTC(),
	}
}

// ScoreRequest is the API request payload for POST /score: one card scored
// in isolation.
type ScoreRequest struct {
	CardID      string           `json:"cardId" validate:"required"`
	Transaction RecommendRequest `json:"transaction"`
}
