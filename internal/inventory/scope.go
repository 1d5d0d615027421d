package inventory

import (
	"github.com/angelmondragon/tablepos-backend/pkg/clock"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

// GlobalScope is the single perpetual scope beverages are stocked under.
const GlobalScope = "global"

// DayScope is the scope of a dish quota for one calendar day.
func DayScope(day string) string {
	return day
}

// ScopeFor picks the scope a product is reserved against on businessDay.
func ScopeFor(category enums.ProductCategory, businessDay string) string {
	if category == enums.ProductCategoryBeverage {
		return GlobalScope
	}
	return DayScope(businessDay)
}

// validateScope checks that scope is the right shape for the product category.
func validateScope(category enums.ProductCategory, scope string) error {
	switch category {
	case enums.ProductCategoryBeverage:
		if scope != GlobalScope {
			return pkgerrors.New(pkgerrors.CodeValidation, "beverages are stocked under the global scope").
				WithDetails(map[string]any{"scope": scope})
		}
	case enums.ProductCategoryDish:
		if _, err := clock.ParseDay(scope); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "dish stock is scoped to a YYYY-MM-DD day").
				WithDetails(map[string]any{"scope": scope})
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
	}
	return nil
}
