package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// Order is a ticket taken against an open cash session.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	BusinessDay    string               `gorm:"column:business_day;type:varchar(10);not null;uniqueIndex:orders_business_day_sequence_key,priority:1"`
	SequenceNumber int                  `gorm:"column:sequence_number;not null;uniqueIndex:orders_business_day_sequence_key,priority:2"`
	CashSessionID  uuid.UUID            `gorm:"column:cash_session_id;type:uuid;not null;index"`
	OperatorID     uuid.UUID            `gorm:"column:operator_id;type:uuid;not null"`
	OrderType      enums.OrderType      `gorm:"column:order_type;type:varchar(16);not null"`
	TableNumber    *int                 `gorm:"column:table_number"`
	PaymentMethod  *enums.PaymentMethod `gorm:"column:payment_method;type:varchar(16)"`
	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:varchar(16);not null"`
	KitchenStatus  enums.KitchenStatus  `gorm:"column:kitchen_status;type:varchar(16);not null"`
	Total          decimal.Decimal      `gorm:"column:total;type:numeric(10,2);not null"`
	PaidAt         *time.Time           `gorm:"column:paid_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderLine freezes product name, category and price at insertion time.
type OrderLine struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	ProductName     string                `gorm:"column:product_name;not null"`
	ProductCategory enums.ProductCategory `gorm:"column:product_category;type:varchar(16);not null"`
	StockScope      string                `gorm:"column:stock_scope;type:varchar(10);not null"`
	Quantity        int                   `gorm:"column:quantity;not null;check:order_lines_quantity_check,quantity > 0"`
	UnitPrice       decimal.Decimal       `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Note            *string               `gorm:"column:note"`
	Destination     enums.LineDestination `gorm:"column:destination;type:varchar(16);not null"`
	KitchenStatus   enums.KitchenStatus   `gorm:"column:kitchen_status;type:varchar(16);not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderDayCounter hands out per-day order sequence numbers.
type OrderDayCounter struct {
	BusinessDay string `gorm:"column:business_day;type:varchar(10);primaryKey"`
	LastNumber  int    `gorm:"column:last_number;not null"`
}
