package domain

import (
	"fmt"
	"math"
)

// Weights configures the five scoring factors. The historical engines each
// hardcoded a drifted copy of these numbers; they are configuration now so
// experiments change a struct literal, not code.
type Weights struct {
	RewardRate     float64 `json:"rewardRate"`
	AnnualFee      float64 `json:"annualFee"`
	UserPreference float64 `json:"userPreference"`
	SignupBonus    float64 `json:"signupBonus"`
	CreditScore    float64 `json:"creditScore"`
}

// weightSumTolerance allows for float drift when weights come from config.
const weightSumTolerance = 1e-6

// DefaultWeights returns the canonical factor weighting.
func DefaultWeights() Weights {
	return Weights{
		RewardRate:     0.4,
		AnnualFee:      0.2,
		UserPreference: 0.2,
		SignupBonus:    0.1,
		CreditScore:    0.1,
	}
}

// Validate checks that every weight is non-negative and the set sums to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"rewardRate":     w.RewardRate,
		"annualFee":      w.AnnualFee,
		"userPreference": w.UserPreference,
		"signupBonus":    w.SignupBonus,
		"creditScore":    w.CreditScore,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	sum := w.RewardRate + w.AnnualFee + w.UserPreference + w.SignupBonus + w.CreditScore
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}
