package orders

import (
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput describes a requested order line. Destination falls back to the
// order type when that type is dine-in or takeaway.
type LineInput struct {
	ProductID   uuid.UUID
	Quantity    int
	Note        *string
	Destination *enums.LineDestination
}

type CreateInput struct {
	CashSessionID uuid.UUID
	Type          *enums.OrderType
	TableNumber   *int
	PaymentMethod *enums.PaymentMethod
	PaymentStatus *enums.PaymentStatus
	Lines         []LineInput
}

// HeaderPatch changes order header fields. A non-nil Lines replaces every
// line in the same transaction. An explicit null TableNumber clears it.
type HeaderPatch struct {
	Type          *enums.OrderType
	TableNumber   types.Nullable[int]
	PaymentMethod *enums.PaymentMethod
	Lines         []LineInput
}

type EditItemInput struct {
	Quantity    *int
	Note        types.Nullable[string]
	Destination *enums.LineDestination
}

// ListFilter narrows order listings. From and To bound created_at.
type ListFilter struct {
	CashSessionID *uuid.UUID
	Type          *enums.OrderType
	TableNumber   *int
	PaymentStatus *enums.PaymentStatus
	KitchenStatus *enums.KitchenStatus
	PaymentMethod *enums.PaymentMethod
	From          *time.Time
	To            *time.Time
}

type Line struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       uuid.UUID             `json:"product_id"`
	ProductName     string                `json:"product_name"`
	ProductCategory enums.ProductCategory `json:"product_category"`
	StockScope      string                `json:"stock_scope"`
	Quantity        int                   `json:"quantity"`
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Note            *string               `json:"note,omitempty"`
	Destination     enums.LineDestination `json:"destination"`
	KitchenStatus   enums.KitchenStatus   `json:"kitchen_status"`
}

type Order struct {
	ID             uuid.UUID            `json:"id"`
	BusinessDay    string               `json:"business_day"`
	SequenceNumber int                  `json:"sequence_number"`
	CashSessionID  uuid.UUID            `json:"cash_session_id"`
	OperatorID     uuid.UUID            `json:"operator_id"`
	OrderType      enums.OrderType      `json:"order_type"`
	TableNumber    *int                 `json:"table_number"`
	PaymentMethod  *enums.PaymentMethod `json:"payment_method"`
	PaymentStatus  enums.PaymentStatus  `json:"payment_status"`
	KitchenStatus  enums.KitchenStatus  `json:"kitchen_status"`
	Total          decimal.Decimal      `json:"total"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Lines          []Line               `json:"lines"`
}

type OrderList struct {
	Items      []Order `json:"items"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

func fromModel(m *models.Order) Order {
	out := Order{
		ID:             m.ID,
		BusinessDay:    m.BusinessDay,
		SequenceNumber: m.SequenceNumber,
		CashSessionID:  m.CashSessionID,
		OperatorID:     m.OperatorID,
		OrderType:      m.OrderType,
		TableNumber:    m.TableNumber,
		PaymentMethod:  m.PaymentMethod,
		PaymentStatus:  m.PaymentStatus,
		KitchenStatus:  m.KitchenStatus,
		Total:          m.Total,
		PaidAt:         m.PaidAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Lines:          make([]Line, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		out.Lines = append(out.Lines, Line{
			ID:              l.ID,
			ProductID:       l.ProductID,
			ProductName:     l.ProductName,
			ProductCategory: l.ProductCategory,
			StockScope:      l.StockScope,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			Subtotal:        l.Subtotal,
			Note:            l.Note,
			Destination:     l.Destination,
			KitchenStatus:   l.KitchenStatus,
		})
	}
	return out
}
