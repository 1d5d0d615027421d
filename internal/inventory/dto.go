package inventory

import (
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/auth"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/google/uuid"
)

const (
	ReasonOpening   = "OPENING"
	ReasonIngress   = "INGRESS"
	ReasonShrinkage = "SHRINKAGE"
)

// SetDailyQuotaInput replaces a dish's available units for one day. An empty
// Day means the current business day.
type SetDailyQuotaInput struct {
	Actor     auth.Actor
	ProductID uuid.UUID
	Day       string
	Quantity  int
	Notes     *string
}

// IngressInput adds beverage units to the global stock.
type IngressInput struct {
	Actor     auth.Actor
	ProductID uuid.UUID
	Quantity  int
	Reason    string
}

// ShrinkInput removes units lost to waste, breakage or theft.
type ShrinkInput struct {
	Actor     auth.Actor
	ProductID uuid.UUID
	Scope     string
	Quantity  int
	Reason    string
}

// Record is the API view of an inventory record.
type Record struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	Scope        string    `json:"scope"`
	AvailableQty int       `json:"available_qty"`
	Notes        *string   `json:"notes,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Movement is the API view of an audit row.
type Movement struct {
	ID        uuid.UUID          `json:"id"`
	RecordID  uuid.UUID          `json:"record_id"`
	ProductID uuid.UUID          `json:"product_id"`
	Scope     string             `json:"scope"`
	Kind      enums.MovementKind `json:"kind"`
	Quantity  int                `json:"quantity"`
	Reason    string             `json:"reason"`
	ActorID   *uuid.UUID         `json:"actor_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// StockChange is the result of a quota, ingress or shrinkage call.
// Movement is nil when a quota was set to its current value.
type StockChange struct {
	Record   Record    `json:"record"`
	Movement *Movement `json:"movement,omitempty"`
}

// AvailabilityItem is one row of the combined availability view.
type AvailabilityItem struct {
	ProductID    uuid.UUID             `json:"product_id"`
	ProductName  string                `json:"product_name"`
	Category     enums.ProductCategory `json:"category"`
	Scope        string                `json:"scope"`
	AvailableQty int                   `json:"available_qty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// MovementFilter narrows the audit trail.
type MovementFilter struct {
	ProductID *uuid.UUID
	Scope     *string
}

// MovementList is a page of the audit trail.
type MovementList struct {
	Items      []Movement `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func recordFromModel(m *models.InventoryRecord) Record {
	return Record{
		ID:           m.ID,
		ProductID:    m.ProductID,
		Scope:        m.Scope,
		AvailableQty: m.AvailableQty,
		Notes:        m.Notes,
		UpdatedAt:    m.UpdatedAt,
	}
}

func movementFromModel(m *models.InventoryMovement, record *models.InventoryRecord) *Movement {
	return &Movement{
		ID:        m.ID,
		RecordID:  m.RecordID,
		ProductID: record.ProductID,
		Scope:     record.Scope,
		Kind:      m.Kind,
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		ActorID:   m.ActorID,
		CreatedAt: m.CreatedAt,
	}
}
