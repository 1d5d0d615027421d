package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// InventoryRecord holds sellable units for a product within one scope:
// a calendar day for dishes, "global" for beverages.
type InventoryRecord struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:inventory_records_product_scope_key,priority:1"`
	Scope        string    `gorm:"column:scope;type:varchar(10);not null;uniqueIndex:inventory_records_product_scope_key,priority:2"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0;check:inventory_records_available_qty_check,available_qty >= 0"`
	Notes        *string   `gorm:"column:notes"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Movements []InventoryMovement `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

// InventoryMovement is an append-only audit row for a real-world stock change.
type InventoryMovement struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	RecordID  uuid.UUID          `gorm:"column:record_id;type:uuid;not null;index"`
	Kind      enums.MovementKind `gorm:"column:kind;type:varchar(16);not null"`
	Quantity  int                `gorm:"column:quantity;not null;check:inventory_movements_quantity_check,quantity > 0"`
	Reason    string             `gorm:"column:reason;not null"`
	ActorID   *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}
