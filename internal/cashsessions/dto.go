package cashsessions

import (
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is the API view of a cash session.
type Session struct {
	ID            uuid.UUID               `json:"id"`
	OperatorID    uuid.UUID               `json:"operator_id"`
	Status        enums.CashSessionStatus `json:"status"`
	OpeningFloat  decimal.Decimal         `json:"opening_float"`
	CountedAmount *decimal.Decimal        `json:"counted_amount,omitempty"`
	OpenedAt      time.Time               `json:"opened_at"`
	ClosedAt      *time.Time              `json:"closed_at,omitempty"`
}

// CategoryTotals is the paid quantity and revenue of one product category.
type CategoryTotals struct {
	Category enums.ProductCategory `json:"category"`
	Quantity int                   `json:"quantity"`
	Revenue  decimal.Decimal       `json:"revenue"`
}

// Reconciliation summarises a session window. Money values are rounded to
// two decimals; sums are taken before rounding.
type Reconciliation struct {
	SessionID    uuid.UUID        `json:"session_id"`
	WindowStart  time.Time        `json:"window_start"`
	WindowEnd    time.Time        `json:"window_end"`
	PaidOrders   int              `json:"paid_orders"`
	GrossSales   decimal.Decimal  `json:"gross_sales"`
	CashSales    decimal.Decimal  `json:"cash_sales"`
	DigitalSales decimal.Decimal  `json:"digital_sales"`
	Expenses     decimal.Decimal  `json:"expenses"`
	OpeningFloat decimal.Decimal  `json:"opening_float"`
	ExpectedCash decimal.Decimal  `json:"expected_cash"`
	Counted      *decimal.Decimal `json:"counted,omitempty"`
	Variance     *decimal.Decimal `json:"variance,omitempty"`
	ByCategory   []CategoryTotals `json:"by_category"`
}

// CloseResult is returned by Close.
type CloseResult struct {
	Session        Session        `json:"session"`
	Reconciliation Reconciliation `json:"reconciliation"`
}

// HistoryFilter narrows the session history. From and To bound opened_at.
type HistoryFilter struct {
	OperatorID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// SessionList is a page of session history.
type SessionList struct {
	Items      []Session `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func fromModel(m *models.CashSession) Session {
	out := Session{
		ID:           m.ID,
		OperatorID:   m.OperatorID,
		Status:       m.Status,
		OpeningFloat: m.OpeningFloat,
		OpenedAt:     m.OpenedAt,
		ClosedAt:     m.ClosedAt,
	}
	if m.CountedAmount.Valid {
		counted := m.CountedAmount.Decimal
		out.CountedAmount = &counted
	}
	return out
}
