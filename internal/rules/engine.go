// Package rules provides the CEL-Go based card eligibility engine.
// Operators define boolean expressions over the transaction and user
// profile; a card is suggestible in catalog-ranking mode only when every
// applicable enabled rule passes.
package rules

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

// Engine compiles and evaluates eligibility rules. Rules can be hot
// reloaded from the repository without restarting the service.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*CompiledRule
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    *domain.EligibilityRule
	Program cel.Program
}

// NewEngine creates an eligibility engine with the card evaluation
// environment.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("category", cel.StringType),
		cel.Variable("merchant", cel.StringType),
		cel.Variable("credit_score", cel.IntType),
		cel.Variable("monthly_income", cel.DoubleType),
		cel.Variable("holds_card", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*CompiledRule),
	}, nil
}

// ValidateRule compiles a rule without loading it.
func (e *Engine) ValidateRule(rule *domain.EligibilityRule) error {
	if rule == nil {
		return fmt.Errorf("rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(rule)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(rule *domain.EligibilityRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(rule)
	if err != nil {
		return err
	}

	e.compiled[rule.ID] = compiled
	return nil
}

// LoadRules compiles and loads every enabled rule.
func (e *Engine) LoadRules(rules []*domain.EligibilityRule) error {
	for _, rule := range rules {
		if rule.Enabled {
			if err := e.LoadRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules atomically replaces the loaded rule set. A compile failure
// leaves the previous set in place.
func (e *Engine) ReloadRules(rules []*domain.EligibilityRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]*CompiledRule)
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		compiled, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		next[rule.ID] = compiled
	}

	e.compiled = next
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// LoadedRules returns the currently loaded rule definitions.
func (e *Engine) LoadedRules() []*domain.EligibilityRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.EligibilityRule, 0, len(e.compiled))
	for _, compiled := range e.compiled {
		rules = append(rules, compiled.Rule)
	}
	return rules
}

// Eligible reports whether every applicable rule passes for the card.
// A rule applies when its CardID is empty or matches the card. Evaluation
// errors never exclude a card; a broken rule must not empty the catalog.
func (e *Engine) Eligible(card *domain.Card, tx *domain.Transaction, profile *domain.UserProfile) bool {
	e.mu.RLock()
	applicable := make([]*CompiledRule, 0, len(e.compiled))
	for _, compiled := range e.compiled {
		if compiled.Rule.CardID == "" || compiled.Rule.CardID == card.ID {
			applicable = append(applicable, compiled)
		}
	}
	e.mu.RUnlock()

	if len(applicable) == 0 {
		return true
	}

	activation := buildActivation(card, tx, profile)
	for _, compiled := range applicable {
		out, _, err := compiled.Program.Eval(activation)
		if err != nil {
			slog.Warn("eligibility rule evaluation failed",
				"rule_id", compiled.Rule.ID,
				"card_id", card.ID,
				"error", err,
			)
			continue
		}
		if out == types.False {
			return false
		}
	}
	return true
}

// Filter returns the cards that pass all applicable rules, preserving
// input order.
func (e *Engine) Filter(cards []*domain.Card, tx *domain.Transaction, profile *domain.UserProfile) []*domain.Card {
	out := make([]*domain.Card, 0, len(cards))
	for _, card := range cards {
		if e.Eligible(card, tx, profile) {
			out = append(out, card)
		}
	}
	return out
}

// Close clears the loaded rule set.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*CompiledRule)
	return nil
}

func buildActivation(card *domain.Card, tx *domain.Transaction, profile *domain.UserProfile) map[string]any {
	activation := map[string]any{
		"amount":         0.0,
		"category":       "",
		"merchant":       "",
		"credit_score":   int64(domain.TierGood),
		"monthly_income": 0.0,
		"holds_card":     false,
	}
	if tx != nil {
		activation["amount"] = tx.Amount
		activation["category"] = tx.Category
		activation["merchant"] = tx.Merchant
	}
	if profile != nil {
		activation["credit_score"] = int64(profile.EffectiveCreditScore())
		activation["monthly_income"] = profile.MonthlyIncome
		activation["holds_card"] = profile.HoldsCard(card.ID)
	}
	return activation
}

func (e *Engine) compileRule(rule *domain.EligibilityRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &CompiledRule{
		Rule:    rule,
		Program: program,
	}, nil
}
