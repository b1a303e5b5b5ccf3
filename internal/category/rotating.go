package category

import (
	"time"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

// rotatingSchedule fixes which categories earn a card's rotating rate each
// calendar quarter. It is a fixed calendar rule, not a model of any
// issuer's actual rotating program.
var rotatingSchedule = map[int][]domain.Category{
	1: {domain.CategoryGroceries, domain.CategoryGas},
	2: {domain.CategoryDining, domain.CategoryEntertainment},
	3: {domain.CategoryTravel, domain.CategoryShopping},
	4: {domain.CategoryWholesale, domain.CategoryDrugstores},
}

// RotatingPolicy answers whether a category is in the active rotating set
// for the current quarter. The clock is injectable so tests can pin a
// quarter.
type RotatingPolicy struct {
	now func() time.Time
}

// NewRotatingPolicy creates a policy on the wall clock.
func NewRotatingPolicy() *RotatingPolicy {
	return &RotatingPolicy{now: time.Now}
}

// NewRotatingPolicyAt creates a policy on a fixed or custom clock.
func NewRotatingPolicyAt(now func() time.Time) *RotatingPolicy {
	if now == nil {
		now = time.Now
	}
	return &RotatingPolicy{now: now}
}

// Quarter returns the current calendar quarter in 1..4.
func (p *RotatingPolicy) Quarter() int {
	month0 := int(p.now().Month()) - 1
	return (month0 + 3) / 3
}

// IsActive reports whether the category earns rotating rewards this quarter.
func (p *RotatingPolicy) IsActive(category domain.Category) bool {
	for _, c := range rotatingSchedule[p.Quarter()] {
		if c == category {
			return true
		}
	}
	return false
}
