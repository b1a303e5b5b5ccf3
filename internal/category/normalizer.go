// Package category normalizes free-text merchant and category strings into
// the canonical spending categories and decides rotating-category windows.
package category

import (
	"strings"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

// keywords maps each canonical category to the substrings that identify it.
// Order of evaluation follows domain.Categories, so a string matching both
// "dining" and "shopping" keywords normalizes to dining.
var keywords = map[domain.Category][]string{
	domain.CategoryDining:        {"restaurant", "food", "cafe", "bar"},
	domain.CategoryGroceries:     {"grocery", "supermarket", "food"},
	domain.CategoryTravel:        {"airline", "hotel", "travel"},
	domain.CategoryGas:           {"gas", "fuel", "station"},
	domain.CategoryDrugstores:    {"pharmacy", "drug", "cvs", "walgreens"},
	domain.CategoryWholesale:     {"costco", "sam's", "wholesale"},
	domain.CategoryEntertainment: {"movie", "streaming", "entertainment"},
	domain.CategoryUtilities:     {"electric", "water", "internet", "phone"},
	domain.CategoryShopping:      {"store", "shop", "retail"},
	domain.CategoryGeneral:       {"other", "miscellaneous"},
}

// Normalize maps a free-text category and merchant to a canonical category.
// Matching is case-insensitive substring containment against merchant or
// category; the first canonical category with any match wins. Unmatched or
// empty input normalizes to general. Pure and total.
func Normalize(category, merchant string) domain.Category {
	merchantLower := strings.ToLower(merchant)
	categoryLower := strings.ToLower(category)

	if merchantLower == "" && categoryLower == "" {
		return domain.CategoryGeneral
	}

	// An already-canonical category passes through unchanged.
	if domain.ValidCategory(categoryLower) {
		return domain.Category(categoryLower)
	}

	for _, canonical := range domain.Categories {
		for _, kw := range keywords[canonical] {
			if strings.Contains(merchantLower, kw) || strings.Contains(categoryLower, kw) {
				return canonical
			}
		}
	}

	return domain.CategoryGeneral
}
