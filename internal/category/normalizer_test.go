package category

import (
	"testing"
	"time"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		category string
		merchant string
		want     domain.Category
	}{
		{"merchant keyword", "", "Joe's Restaurant", domain.CategoryDining},
		{"canonical passthrough", "dining", "", domain.CategoryDining},
		{"canonical passthrough uppercase", "Travel", "", domain.CategoryTravel},
		{"category keyword", "grocery run", "", domain.CategoryGroceries},
		{"case insensitive", "", "SHELL GAS STATION", domain.CategoryGas},
		{"merchant wins over nothing", "", "Delta Airlines", domain.CategoryTravel},
		{"drugstore chain", "", "CVS #1234", domain.CategoryDrugstores},
		{"wholesale club", "", "Costco Wholesale", domain.CategoryWholesale},
		{"streaming", "streaming service", "", domain.CategoryEntertainment},
		{"utility", "internet bill", "", domain.CategoryUtilities},
		{"retail", "", "corner store", domain.CategoryShopping},
		{"no match", "unknown_category_xyz", "acme widgets", domain.CategoryGeneral},
		{"both empty", "", "", domain.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.category, tt.merchant)
			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %s, want %s", tt.category, tt.merchant, got, tt.want)
			}
		})
	}
}

func TestNormalizePrecedence(t *testing.T) {
	// "food" appears under both dining and groceries; dining comes first in
	// the canonical order and must win.
	if got := Normalize("food delivery", ""); got != domain.CategoryDining {
		t.Errorf("expected dining for ambiguous keyword, got %s", got)
	}
}

func TestRotatingQuarters(t *testing.T) {
	tests := []struct {
		month   time.Month
		quarter int
		active  domain.Category
		idle    domain.Category
	}{
		{time.January, 1, domain.CategoryGroceries, domain.CategoryDining},
		{time.March, 1, domain.CategoryGas, domain.CategoryTravel},
		{time.April, 2, domain.CategoryDining, domain.CategoryGroceries},
		{time.June, 2, domain.CategoryEntertainment, domain.CategoryGas},
		{time.July, 3, domain.CategoryTravel, domain.CategoryWholesale},
		{time.September, 3, domain.CategoryShopping, domain.CategoryDining},
		{time.October, 4, domain.CategoryWholesale, domain.CategoryTravel},
		{time.December, 4, domain.CategoryDrugstores, domain.CategoryShopping},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			policy := NewRotatingPolicyAt(func() time.Time {
				return time.Date(2025, tt.month, 15, 12, 0, 0, 0, time.UTC)
			})

			if q := policy.Quarter(); q != tt.quarter {
				t.Errorf("Quarter() = %d, want %d", q, tt.quarter)
			}
			if !policy.IsActive(tt.active) {
				t.Errorf("expected %s active in Q%d", tt.active, tt.quarter)
			}
			if policy.IsActive(tt.idle) {
				t.Errorf("expected %s inactive in Q%d", tt.idle, tt.quarter)
			}
		})
	}
}

func TestRotatingGeneralNeverActive(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		policy := NewRotatingPolicyAt(func() time.Time {
			return time.Date(2025, m, 1, 0, 0, 0, 0, time.UTC)
		})
		if policy.IsActive(domain.CategoryGeneral) {
			t.Errorf("general should never rotate, active in %s", m)
		}
	}
}
