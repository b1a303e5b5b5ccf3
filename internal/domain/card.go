// Package domain defines the core interfaces and types for Cardwise.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Reward table keys with special meaning. All other keys are canonical
// category names.
const (
	RewardKeyOther    = "other"
	RewardKeyRotating = "rotating"
)

// RewardTable maps a canonical category name to a reward rate in percent.
// Every catalog card is expected to carry an "other" fallback entry; a
// "rotating" entry applies only during the quarters its categories are
// active.
type RewardTable map[string]float64

// Rate returns the category-specific rate, if present.
func (t RewardTable) Rate(category string) (float64, bool) {
	r, ok := t[category]
	return r, ok
}

// Other returns the fallback rate, if present.
func (t RewardTable) Other() (float64, bool) {
	r, ok := t[RewardKeyOther]
	return r, ok
}

// Rotating returns the rotating-category rate, if present.
func (t RewardTable) Rotating() (float64, bool) {
	r, ok := t[RewardKeyRotating]
	return r, ok
}

// SignupBonus describes a card's one-time signup offer.
type SignupBonus struct {
	Amount              float64 `json:"amount"`
	Currency            string  `json:"currency"`
	SpendingRequirement float64 `json:"spendingRequirement"`
	Timeframe           string  `json:"timeframe"`
}

// Card is an immutable catalog credit card definition.
type Card struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Bank                string      `json:"bank"`
	Type                string      `json:"type"`
	AnnualFee           float64     `json:"annualFee"`
	CreditScoreRequired CreditTier  `json:"creditScoreRequired"`
	Rewards             RewardTable `json:"rewards"`
	SignupBonus         SignupBonus `json:"signupBonus"`
	Benefits            []string    `json:"benefits"`
}

// CardHolding is a catalog card a user has added to their profile.
// Only active holdings participate in held-card ranking.
type CardHolding struct {
	CardID         string    `json:"cardId"`
	CardName       string    `json:"cardName"`
	Bank           string    `json:"bank"`
	LastFourDigits string    `json:"lastFourDigits,omitempty"`
	IsActive       bool      `json:"isActive"`
	AddedAt        time.Time `json:"addedAt"`
}

// CreditTier is an ordinal credit score tier. The zero value is invalid;
// use ParseCreditTier to construct one from catalog or profile data.
type CreditTier int

const (
	TierPoor CreditTier = iota + 1
	TierFair
	TierGood
	TierVeryGood
	TierExcellent
)

var tierNames = map[CreditTier]string{
	TierPoor:      "Poor",
	TierFair:      "Fair",
	TierGood:      "Good",
	TierVeryGood:  "Very Good",
	TierExcellent: "Excellent",
}

// String returns the display name of the tier.
func (t CreditTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CreditTier(%d)", int(t))
}

// Valid reports whether t is one of the five defined tiers.
func (t CreditTier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseCreditTier converts a tier name to its ordinal value. Catalog range
// strings such as "Good to Excellent" parse to their lower bound. Unknown
// names are an error rather than a silent default.
func ParseCreditTier(s string) (CreditTier, error) {
	name := strings.TrimSpace(s)
	if i := strings.Index(strings.ToLower(name), " to "); i >= 0 {
		name = name[:i]
	}
	for tier, n := range tierNames {
		if strings.EqualFold(n, name) {
			return tier, nil
		}
	}
	return 0, fmt.Errorf("unknown credit tier %q", s)
}

// MarshalJSON encodes the tier as its display name. An unset or invalid
// tier encodes as the empty string so partially-filled cards and fresh
// profiles stay serializable; strictness lives in ParseCreditTier.
func (t CreditTier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return json.Marshal("")
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier display name. The empty string decodes to
// the zero tier, matching what an unset tier marshals to.
func (t *CreditTier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*t = 0
		return nil
	}
	tier, err := ParseCreditTier(s)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}
