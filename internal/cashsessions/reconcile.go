package cashsessions

import (
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// Summarize computes the reconciliation figures for a set of paid orders.
// Expected cash is the opening float plus cash sales minus expenses; variance
// is only present when a counted amount was recorded.
func Summarize(orders []models.Order, openingFloat, expenses decimal.Decimal, counted *decimal.Decimal) Reconciliation {
	gross := decimal.Zero
	cash := decimal.Zero
	digital := decimal.Zero
	byCategory := map[enums.ProductCategory]*CategoryTotals{
		enums.ProductCategoryDish:     {Category: enums.ProductCategoryDish, Revenue: decimal.Zero},
		enums.ProductCategoryBeverage: {Category: enums.ProductCategoryBeverage, Revenue: decimal.Zero},
	}

	for _, order := range orders {
		gross = gross.Add(order.Total)
		if order.PaymentMethod != nil && *order.PaymentMethod == enums.PaymentMethodDigital {
			digital = digital.Add(order.Total)
		} else {
			cash = cash.Add(order.Total)
		}
		for _, line := range order.Lines {
			totals, ok := byCategory[line.ProductCategory]
			if !ok {
				continue
			}
			totals.Quantity += line.Quantity
			totals.Revenue = totals.Revenue.Add(line.Subtotal)
		}
	}

	expected := openingFloat.Add(cash).Sub(expenses)
	recon := Reconciliation{
		PaidOrders:   len(orders),
		GrossSales:   gross.Round(moneyPlaces),
		CashSales:    cash.Round(moneyPlaces),
		DigitalSales: digital.Round(moneyPlaces),
		Expenses:     expenses.Round(moneyPlaces),
		OpeningFloat: openingFloat.Round(moneyPlaces),
		ExpectedCash: expected.Round(moneyPlaces),
	}
	if counted != nil {
		countedValue := counted.Round(moneyPlaces)
		variance := counted.Sub(expected).Round(moneyPlaces)
		recon.Counted = &countedValue
		recon.Variance = &variance
	}
	for _, category := range []enums.ProductCategory{enums.ProductCategoryDish, enums.ProductCategoryBeverage} {
		totals := byCategory[category]
		recon.ByCategory = append(recon.ByCategory, CategoryTotals{
			Category: category,
			Quantity: totals.Quantity,
			Revenue:  totals.Revenue.Round(moneyPlaces),
		})
	}
	return recon
}
