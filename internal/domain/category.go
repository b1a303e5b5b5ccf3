package domain

// Category is a canonical spending category. All free-text merchant and
// category strings are normalized into this closed set.
type Category string

const (
	CategoryDining        Category = "dining"
	CategoryGroceries     Category = "groceries"
	CategoryTravel        Category = "travel"
	CategoryGas           Category = "gas"
	CategoryDrugstores    Category = "drugstores"
	CategoryWholesale     Category = "wholesale"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryShopping      Category = "shopping"
	CategoryGeneral       Category = "general"
)

// Categories lists every canonical category in normalization precedence
// order. The normalizer returns the first category with a keyword match.
var Categories = []Category{
	CategoryDining,
	CategoryGroceries,
	CategoryTravel,
	CategoryGas,
	CategoryDrugstores,
	CategoryWholesale,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryShopping,
	CategoryGeneral,
}

// String returns the category name.
func (c Category) String() string { return string(c) }

// ValidCategory reports whether s names a canonical category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}
