package ranker

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/VihaanShah2004/cardwise/internal/category"
	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/engine"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func q1Clock() time.Time {
	return time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
}

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	e, err := engine.New(domain.DefaultWeights(), category.NewRotatingPolicyAt(q1Clock))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return New(e)
}

func testCard(id string, fee float64, rewards domain.RewardTable) *domain.Card {
	return &domain.Card{
		ID:                  id,
		Name:                id,
		Bank:                "Test Bank",
		AnnualFee:           fee,
		CreditScoreRequired: domain.TierGood,
		Rewards:             rewards,
	}
}

func diningTx() *domain.Transaction {
	return &domain.Transaction{
		ID:       "tx-1",
		UserID:   "user-1",
		Amount:   42.50,
		Merchant: "Joe's Restaurant",
		Category: "dining",
	}
}

func testProfile() *domain.UserProfile {
	return &domain.UserProfile{
		UserID:        "user-1",
		CreditScore:   domain.TierGood,
		MonthlyIncome: 5000,
	}
}

func TestRankOrdersByScore(t *testing.T) {
	r := newTestRanker(t)

	flat := testCard("flat", 0, domain.RewardTable{"other": 1})
	dining := testCard("dining", 0, domain.RewardTable{"dining": 3, "other": 1})
	mid := testCard("mid", 0, domain.RewardTable{"other": 1.5})

	result := r.Rank([]*domain.Card{flat, dining, mid}, diningTx(), testProfile(), ReasonNoHeldCards)

	if result.RecommendedCard == nil || result.RecommendedCard.ID != "dining" {
		t.Fatalf("expected dining card on top, got %+v", result.RecommendedCard)
	}
	if len(result.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(result.Alternatives))
	}
	if result.Alternatives[0].Card.ID != "mid" || result.Alternatives[1].Card.ID != "flat" {
		t.Errorf("alternatives out of order: %s, %s",
			result.Alternatives[0].Card.ID, result.Alternatives[1].Card.ID)
	}
	if result.Metadata.CardsScored != 3 {
		t.Errorf("expected 3 cards scored, got %d", result.Metadata.CardsScored)
	}
	if result.Metadata.EngineVersion != engine.Version {
		t.Errorf("unexpected engine version %q", result.Metadata.EngineVersion)
	}
	if result.ID == "" {
		t.Error("expected a result ID")
	}
	if result.UserID != "user-1" {
		t.Errorf("expected user id from profile, got %q", result.UserID)
	}
}

func TestRankTieKeepsInputOrder(t *testing.T) {
	r := newTestRanker(t)

	a := testCard("a", 0, domain.RewardTable{"other": 1.5})
	b := testCard("b", 0, domain.RewardTable{"other": 1.5})
	c := testCard("c", 0, domain.RewardTable{"other": 1.5})

	result := r.Rank([]*domain.Card{a, b, c}, diningTx(), testProfile(), ReasonNoHeldCards)

	if result.RecommendedCard.ID != "a" {
		t.Errorf("expected first input card to win ties, got %q", result.RecommendedCard.ID)
	}
	if result.Alternatives[0].Card.ID != "b" || result.Alternatives[1].Card.ID != "c" {
		t.Errorf("tie order not preserved: %s, %s",
			result.Alternatives[0].Card.ID, result.Alternatives[1].Card.ID)
	}
}

func TestRankAlternativesCapped(t *testing.T) {
	r := newTestRanker(t)

	cards := make([]*domain.Card, 5)
	for i := range cards {
		cards[i] = testCard(strings.Repeat("x", i+1), 0, domain.RewardTable{"other": 1})
	}

	result := r.Rank(cards, diningTx(), testProfile(), ReasonNoHeldCards)
	if len(result.Alternatives) != 2 {
		t.Errorf("expected alternatives capped at 2, got %d", len(result.Alternatives))
	}
}

func TestRankEmptyInput(t *testing.T) {
	r := newTestRanker(t)

	tests := []struct {
		name   string
		reason string
		want   string
	}{
		{"held mode", ReasonNoHeldCards, ReasonNoHeldCards},
		{"catalog mode", ReasonEmptyCatalog, ReasonEmptyCatalog},
		{"default reason", "", ReasonNoHeldCards},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := r.Rank(nil, diningTx(), testProfile(), tt.reason)
			if result.RecommendedCard != nil {
				t.Error("expected no recommended card for empty input")
			}
			if result.Confidence != 0 {
				t.Errorf("expected zero confidence, got %v", result.Confidence)
			}
			if result.Reasoning != tt.want {
				t.Errorf("expected reasoning %q, got %q", tt.want, result.Reasoning)
			}
		})
	}
}

func TestRankSingleCardConfidence(t *testing.T) {
	r := newTestRanker(t)

	result := r.Rank([]*domain.Card{testCard("only", 0, domain.RewardTable{"other": 1.5})},
		diningTx(), testProfile(), ReasonNoHeldCards)

	if !almostEqual(result.Confidence, 0.8) {
		t.Errorf("expected confidence 0.8 for single card, got %v", result.Confidence)
	}
}

func TestRankFailedCardGetsNeutralScore(t *testing.T) {
	r := newTestRanker(t)

	broken := &domain.Card{ID: "broken", Name: "broken"} // nil rewards
	good := testCard("good", 0, domain.RewardTable{"dining": 3, "other": 1})

	result := r.Rank([]*domain.Card{broken, good}, diningTx(), testProfile(), ReasonNoHeldCards)

	if result.RecommendedCard.ID != "good" {
		t.Fatalf("expected healthy card on top, got %q", result.RecommendedCard.ID)
	}
	if len(result.Alternatives) != 1 {
		t.Fatalf("expected broken card kept as alternative, got %d", len(result.Alternatives))
	}
	if result.Alternatives[0].Card.ID != "broken" {
		t.Errorf("expected broken card as alternative, got %q", result.Alternatives[0].Card.ID)
	}
	if !almostEqual(result.Alternatives[0].Score, 50) {
		t.Errorf("expected neutral score 50 for failed card, got %v", result.Alternatives[0].Score)
	}
}

func TestRankFailedTopCardHasNeutralConfidence(t *testing.T) {
	r := newTestRanker(t)

	// The broken card's neutral 50 beats a weak healthy card.
	broken := &domain.Card{ID: "broken", Name: "broken"}
	weak := &domain.Card{
		ID:                  "weak",
		Name:                "weak",
		AnnualFee:           500,
		CreditScoreRequired: domain.TierExcellent,
		Rewards:             domain.RewardTable{"other": 0.1},
	}

	result := r.Rank([]*domain.Card{broken, weak}, diningTx(), testProfile(), ReasonNoHeldCards)

	if result.RecommendedCard.ID != "broken" {
		t.Fatalf("expected neutral-scored card on top, got %q", result.RecommendedCard.ID)
	}
	if !almostEqual(result.Confidence, 0.5) {
		t.Errorf("expected neutral confidence 0.5, got %v", result.Confidence)
	}
}

func TestSeparationConfidence(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"no entries", nil, 0},
		{"single entry", []float64{70}, 0.8},
		{"dead heat clamps to floor", []float64{60, 60}, 0.5},
		{"wide gap clamps to ceiling", []float64{80, 10}, 0.95},
		{"moderate gap", []float64{80, 64}, 0.7},
		{"zero top score", []float64{0, 0}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]scoredEntry, len(tt.scores))
			for i, s := range tt.scores {
				entries[i] = scoredEntry{score: s}
			}
			if got := SeparationConfidence(entries); !almostEqual(got, tt.want) {
				t.Errorf("SeparationConfidence(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}

func TestMidpointConfidence(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{50, 0},
		{100, 1},
		{0, 1},
		{75, 0.5},
		{25, 0.5},
		{120, 1},
	}
	for _, tt := range tests {
		if got := MidpointConfidence(tt.score); !almostEqual(got, tt.want) {
			t.Errorf("MidpointConfidence(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestReasoningClauses(t *testing.T) {
	r := newTestRanker(t)

	tests := []struct {
		name        string
		card        *domain.Card
		profile     *domain.UserProfile
		wantClauses []string
		skipClauses []string
	}{
		{
			name: "category rate with fee and bonus",
			card: &domain.Card{
				ID:                  "premium",
				Name:                "premium",
				AnnualFee:           95,
				CreditScoreRequired: domain.TierGood,
				Rewards:             domain.RewardTable{"dining": 2, "other": 1},
				SignupBonus:         domain.SignupBonus{Amount: 60000, Currency: "points"},
			},
			profile:     testProfile(),
			wantClauses: []string{"Earns 2% cashback on dining", "Annual fee: $95", "Eligible for signup bonus: 60000 points"},
			skipClauses: []string{"No annual fee"},
		},
		{
			name: "flat rate no fee",
			card: &domain.Card{
				ID:                  "basic",
				Name:                "basic",
				CreditScoreRequired: domain.TierGood,
				Rewards:             domain.RewardTable{"other": 1},
			},
			profile:     testProfile(),
			wantClauses: []string{"Earns a flat 1% on dining", "No annual fee"},
			skipClauses: []string{"signup bonus"},
		},
		{
			name: "held card loses bonus clause",
			card: &domain.Card{
				ID:                  "held",
				Name:                "held",
				CreditScoreRequired: domain.TierGood,
				Rewards:             domain.RewardTable{"other": 1.5},
				SignupBonus:         domain.SignupBonus{Amount: 200, Currency: "cashback"},
			},
			profile: &domain.UserProfile{
				UserID:      "user-1",
				CreditCards: []domain.CardHolding{{CardID: "held", IsActive: false}},
			},
			wantClauses: []string{"Earns 1.5% cashback on dining"},
			skipClauses: []string{"signup bonus"},
		},
		{
			name: "high spend match",
			card: &domain.Card{
				ID:                  "spender",
				Name:                "spender",
				CreditScoreRequired: domain.TierGood,
				Rewards:             domain.RewardTable{"dining": 3, "other": 1},
			},
			profile: &domain.UserProfile{
				UserID: "user-1",
				SpendingPreferences: []domain.SpendingPreference{
					{Category: "dining", MonthlySpending: 800},
					{Category: "groceries", MonthlySpending: 300},
				},
			},
			wantClauses: []string{"Matches your high spending in dining"},
		},
		{
			name: "low spend share skips match clause",
			card: &domain.Card{
				ID:                  "spender",
				Name:                "spender",
				CreditScoreRequired: domain.TierGood,
				Rewards:             domain.RewardTable{"dining": 3, "other": 1},
			},
			profile: &domain.UserProfile{
				UserID: "user-1",
				SpendingPreferences: []domain.SpendingPreference{
					{Category: "dining", MonthlySpending: 300},
					{Category: "groceries", MonthlySpending: 800},
				},
			},
			skipClauses: []string{"Matches your high spending"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.buildReasoning(tt.card, diningTx(), tt.profile)
			for _, clause := range tt.wantClauses {
				if !strings.Contains(got, clause) {
					t.Errorf("reasoning %q missing clause %q", got, clause)
				}
			}
			for _, clause := range tt.skipClauses {
				if strings.Contains(got, clause) {
					t.Errorf("reasoning %q should not contain %q", got, clause)
				}
			}
		})
	}
}

func TestReasoningGeneralCategoryUsesGenericTarget(t *testing.T) {
	r := newTestRanker(t)

	card := testCard("basic", 0, domain.RewardTable{"other": 1.5})
	tx := &domain.Transaction{
		ID:       "tx-2",
		UserID:   "user-1",
		Amount:   10,
		Merchant: "Unknown Vendor",
		Category: "general",
	}

	got := r.buildReasoning(card, tx, testProfile())
	if !strings.Contains(got, "on this purchase") {
		t.Errorf("expected generic purchase target, got %q", got)
	}
}

func TestScoreOne(t *testing.T) {
	r := newTestRanker(t)

	card := testCard("dining", 0, domain.RewardTable{"dining": 3, "other": 1})
	got := r.ScoreOne(card, diningTx(), testProfile())

	if got.Score <= 0 {
		t.Errorf("expected positive score, got %v", got.Score)
	}
	if !almostEqual(got.Confidence, MidpointConfidence(got.Score)) {
		t.Errorf("confidence %v does not follow midpoint policy for score %v", got.Confidence, got.Score)
	}
	if len(got.Factors) != 5 {
		t.Errorf("expected 5 factors, got %d", len(got.Factors))
	}
}

func TestScoreOneFailure(t *testing.T) {
	r := newTestRanker(t)

	broken := &domain.Card{ID: "broken", Name: "broken"}
	got := r.ScoreOne(broken, diningTx(), testProfile())

	if !almostEqual(got.Score, 50) {
		t.Errorf("expected neutral score 50, got %v", got.Score)
	}
	if !almostEqual(got.Confidence, 0.5) {
		t.Errorf("expected neutral confidence 0.5, got %v", got.Confidence)
	}
}
