package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// CashSession is one operator's register shift.
type CashSession struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OperatorID    uuid.UUID               `gorm:"column:operator_id;type:uuid;not null;index:cash_sessions_one_open_per_operator,unique,where:status = 'open'"`
	Status        enums.CashSessionStatus `gorm:"column:status;type:varchar(16);not null"`
	OpeningFloat  decimal.Decimal         `gorm:"column:opening_float;type:numeric(10,2);not null"`
	CountedAmount decimal.NullDecimal     `gorm:"column:counted_amount;type:numeric(10,2)"`
	OpenedAt      time.Time               `gorm:"column:opened_at;not null"`
	ClosedAt      *time.Time              `gorm:"column:closed_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
