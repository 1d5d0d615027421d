package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is a cash outflow, optionally attached to a cash session.
type Expense struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CashSessionID *uuid.UUID      `gorm:"column:cash_session_id;type:uuid;index"`
	OperatorID    uuid.UUID       `gorm:"column:operator_id;type:uuid;not null"`
	ItemName      string          `gorm:"column:item_name;not null"`
	Description   *string         `gorm:"column:description"`
	Quantity      int             `gorm:"column:quantity;not null;default:1;check:expenses_quantity_check,quantity > 0"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	SpentOn       string          `gorm:"column:spent_on;type:varchar(10);not null;index"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Amount is unit price times quantity, unrounded.
func (e Expense) Amount() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}
