package orders

import (
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// DeriveType maps the distinct line destinations to an order type. It
// reports false for an empty line set, which implies no type.
func DeriveType(lines []models.OrderLine) (enums.OrderType, bool) {
	var dineIn, takeaway bool
	for _, line := range lines {
		switch line.Destination {
		case enums.LineDestinationDineIn:
			dineIn = true
		case enums.LineDestinationTakeaway:
			takeaway = true
		}
	}
	switch {
	case dineIn && takeaway:
		return enums.OrderTypeMixed, true
	case dineIn:
		return enums.OrderTypeDineIn, true
	case takeaway:
		return enums.OrderTypeTakeaway, true
	default:
		return "", false
	}
}

// ApplyTypeRules returns the table number an order of type t may carry.
// Takeaway orders never keep a table; dine-in and mixed orders need one
// between 1 and maxTable.
func ApplyTypeRules(t enums.OrderType, table *int, maxTable int) (*int, error) {
	if t == enums.OrderTypeTakeaway {
		return nil, nil
	}
	if table == nil {
		return nil, pkgerrors.StateConflict(pkgerrors.ReasonTableNumberRequired, "table number required",
			map[string]any{"order_type": t.String()})
	}
	if err := validateTable(*table, maxTable); err != nil {
		return nil, err
	}
	value := *table
	return &value, nil
}

func validateTable(table, maxTable int) error {
	if table < 1 || table > maxTable {
		return pkgerrors.New(pkgerrors.CodeValidation, "table number out of range").
			WithDetails(map[string]any{"table_number": table, "max": maxTable})
	}
	return nil
}

// DeriveKitchenStatus is pending while any line is pending. An order
// without lines is ready.
func DeriveKitchenStatus(lines []models.OrderLine) enums.KitchenStatus {
	for _, line := range lines {
		if line.KitchenStatus != enums.KitchenStatusReady {
			return enums.KitchenStatusPending
		}
	}
	return enums.KitchenStatusReady
}

// Total sums line subtotals.
func Total(lines []models.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

func subtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
