package expenses

import (
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/auth"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateInput struct {
	Actor         auth.Actor
	CashSessionID *uuid.UUID
	ItemName      string
	Description   *string
	Quantity      int
	UnitPrice     decimal.Decimal
	SpentOn       string
}

// UpdateInput patches an expense; nil fields are left untouched.
type UpdateInput struct {
	Actor       auth.Actor
	ItemName    *string
	Description *string
	Quantity    *int
	UnitPrice   *decimal.Decimal
	SpentOn     *string
}

// Filter narrows listings and summaries. From and To are inclusive days.
type Filter struct {
	CashSessionID *uuid.UUID
	From          *string
	To            *string
}

type Expense struct {
	ID            uuid.UUID       `json:"id"`
	CashSessionID *uuid.UUID      `json:"cash_session_id,omitempty"`
	OperatorID    uuid.UUID       `json:"operator_id"`
	ItemName      string          `json:"item_name"`
	Description   *string         `json:"description,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	SpentOn       string          `json:"spent_on"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ExpenseList struct {
	Items      []Expense `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type Summary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

func fromModel(m *models.Expense) Expense {
	return Expense{
		ID:            m.ID,
		CashSessionID: m.CashSessionID,
		OperatorID:    m.OperatorID,
		ItemName:      m.ItemName,
		Description:   m.Description,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		Amount:        m.Amount().Round(2),
		SpentOn:       m.SpentOn,
		CreatedAt:     m.CreatedAt,
	}
}
