package rules

import (
	"strings"
	"testing"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

func rule(id, cardID, expr string) *domain.EligibilityRule {
	return &domain.EligibilityRule{
		ID:         id,
		CardID:     cardID,
		Name:       id,
		Expression: expr,
		Enabled:    true,
	}
}

func testCard(id string) *domain.Card {
	return &domain.Card{
		ID:                  id,
		Name:                id,
		CreditScoreRequired: domain.TierGood,
		Rewards:             domain.RewardTable{"other": 1},
	}
}

func TestValidateRule(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		expr    string
		wantErr string
	}{
		{"valid bool expression", `amount > 100.0 && category == "dining"`, ""},
		{"all variables available", `credit_score >= 3 && monthly_income > 0.0 && !holds_card && merchant != ""`, ""},
		{"syntax error", `amount >`, "failed to compile"},
		{"unknown variable", `velocity_count > 5`, "failed to compile"},
		{"non-bool output", `amount * 2.0`, "must return bool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ValidateRule(rule("r1", "", tt.expr))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEligible(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadRule(rule("min-income", "", `monthly_income >= 3000.0`)); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	card := testCard("card-a")
	tx := &domain.Transaction{Amount: 50, Category: "dining"}

	rich := &domain.UserProfile{UserID: "u1", MonthlyIncome: 5000}
	poor := &domain.UserProfile{UserID: "u2", MonthlyIncome: 1000}

	if !e.Eligible(card, tx, rich) {
		t.Error("expected card eligible for qualifying profile")
	}
	if e.Eligible(card, tx, poor) {
		t.Error("expected card excluded for non-qualifying profile")
	}
}

func TestCardScopedRule(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadRule(rule("premium-only", "premium", `credit_score >= 5`)); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	profile := &domain.UserProfile{UserID: "u1", CreditScore: domain.TierGood}

	if e.Eligible(testCard("premium"), nil, profile) {
		t.Error("expected scoped rule to exclude its card")
	}
	if !e.Eligible(testCard("basic"), nil, profile) {
		t.Error("expected scoped rule to ignore other cards")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadRule(rule("no-premium", "b", `false`)); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	cards := []*domain.Card{testCard("a"), testCard("b"), testCard("c")}
	got := e.Filter(cards, nil, nil)

	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		ids := make([]string, len(got))
		for i, c := range got {
			ids[i] = c.ID
		}
		t.Errorf("expected [a c], got %v", ids)
	}
}

func TestFilterNoRulesPassesAll(t *testing.T) {
	e := newTestEngine(t)
	cards := []*domain.Card{testCard("a"), testCard("b")}
	if got := e.Filter(cards, nil, nil); len(got) != 2 {
		t.Errorf("expected all cards to pass with no rules, got %d", len(got))
	}
}

func TestDisabledRulesNotLoaded(t *testing.T) {
	e := newTestEngine(t)
	disabled := rule("off", "", `false`)
	disabled.Enabled = false

	if err := e.LoadRules([]*domain.EligibilityRule{disabled}); err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}
	if e.RulesCount() != 0 {
		t.Errorf("expected 0 loaded rules, got %d", e.RulesCount())
	}
	if !e.Eligible(testCard("a"), nil, nil) {
		t.Error("disabled rule should not exclude cards")
	}
}

func TestReloadReplacesRuleSet(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadRule(rule("old", "", `false`)); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	if err := e.ReloadRules([]*domain.EligibilityRule{rule("new", "", `true`)}); err != nil {
		t.Fatalf("failed to reload rules: %v", err)
	}

	if e.RulesCount() != 1 {
		t.Fatalf("expected 1 rule after reload, got %d", e.RulesCount())
	}
	if got := e.LoadedRules(); got[0].ID != "new" {
		t.Errorf("expected rule \"new\", got %q", got[0].ID)
	}
}

func TestReloadFailureKeepsPreviousRules(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadRule(rule("keep", "", `true`)); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	err := e.ReloadRules([]*domain.EligibilityRule{rule("bad", "", `amount >`)})
	if err == nil {
		t.Fatal("expected reload to fail on bad expression")
	}
	if e.RulesCount() != 1 {
		t.Errorf("expected previous rule set intact, got %d rules", e.RulesCount())
	}
	if got := e.LoadedRules(); got[0].ID != "keep" {
		t.Errorf("expected rule \"keep\" retained, got %q", got[0].ID)
	}
}

func TestBuiltinRulesCompile(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadRules(BuiltinRules()); err != nil {
		t.Fatalf("builtin rules failed to compile: %v", err)
	}
	if e.RulesCount() == 0 {
		t.Error("expected at least one builtin rule")
	}

	// The credit floor excludes Poor-tier users.
	poor := &domain.UserProfile{UserID: "u1", CreditScore: domain.TierPoor}
	if e.Eligible(testCard("any"), nil, poor) {
		t.Error("expected credit floor to exclude Poor tier")
	}
	fair := &domain.UserProfile{UserID: "u2", CreditScore: domain.TierFair}
	if !e.Eligible(testCard("any"), nil, fair) {
		t.Error("expected Fair tier to pass the credit floor")
	}
}
