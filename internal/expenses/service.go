package expenses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/auth"
	"github.com/angelmondragon/tablepos-backend/pkg/clock"
	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service records cash outflows.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Expense, error)
	Get(ctx context.Context, id uuid.UUID) (*Expense, error)
	List(ctx context.Context, filter Filter, params pagination.Params) (*ExpenseList, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Expense, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	Summary(ctx context.Context, filter Filter) (*Summary, error)
	SumForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo  *Repository
	clock clock.Clock
	loc   *time.Location
	logg  *logger.Logger
}

func NewService(repo *Repository, clk clock.Clock, loc *time.Location, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("expense repository required")
	}
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, clock: clk, loc: loc, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Expense, error) {
	if err := authorize(input.Actor); err != nil {
		return nil, err
	}
	itemName := strings.TrimSpace(input.ItemName)
	if itemName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if err := validateAmounts(quantity, input.UnitPrice); err != nil {
		return nil, err
	}
	spentOn := strings.TrimSpace(input.SpentOn)
	if spentOn == "" {
		spentOn = clock.BusinessDay(s.clock.Now(), s.loc)
	}
	if _, err := clock.ParseDay(spentOn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid spent_on")
	}

	if input.CashSessionID != nil {
		if err := s.checkSession(ctx, input.Actor, *input.CashSessionID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	expense := &models.Expense{
		CashSessionID: input.CashSessionID,
		OperatorID:    input.Actor.UserID,
		ItemName:      itemName,
		Description:   input.Description,
		Quantity:      quantity,
		UnitPrice:     input.UnitPrice,
		SpentOn:       spentOn,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, db.StorageError(err, "create expense")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"expense_id": expense.ID.String(),
		"amount":     expense.Amount().StringFixed(2),
	})
	s.logg.Info(logCtx, "expense.created")

	out := fromModel(expense)
	return &out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	expense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := fromModel(expense)
	return &out, nil
}

func (s *service) List(ctx context.Context, filter Filter, params pagination.Params) (*ExpenseList, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	limit, cursor, err := pagination.FromParams(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, limit, cursor)
	if err != nil {
		return nil, db.StorageError(err, "list expenses")
	}
	rows, next := pagination.Trim(rows, limit, func(m models.Expense) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	items := make([]Expense, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	return &ExpenseList{Items: items, NextCursor: next}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Expense, error) {
	if err := authorize(input.Actor); err != nil {
		return nil, err
	}
	expense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(ctx, input.Actor, expense); err != nil {
		return nil, err
	}

	if input.ItemName != nil {
		name := strings.TrimSpace(*input.ItemName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
		}
		expense.ItemName = name
	}
	if input.Description != nil {
		expense.Description = input.Description
	}
	if input.Quantity != nil {
		expense.Quantity = *input.Quantity
	}
	if input.UnitPrice != nil {
		expense.UnitPrice = *input.UnitPrice
	}
	if input.SpentOn != nil {
		if _, err := clock.ParseDay(*input.SpentOn); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid spent_on")
		}
		expense.SpentOn = *input.SpentOn
	}
	if err := validateAmounts(expense.Quantity, expense.UnitPrice); err != nil {
		return nil, err
	}
	expense.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, expense); err != nil {
		return nil, db.StorageError(err, "update expense")
	}
	out := fromModel(expense)
	return &out, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := authorize(actor); err != nil {
		return err
	}
	expense, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkEditable(ctx, actor, expense); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.StorageError(err, "delete expense")
	}
	s.logg.Info(s.logg.WithField(ctx, "expense_id", id.String()), "expense.deleted")
	return nil
}

func (s *service) Summary(ctx context.Context, filter Filter) (*Summary, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	rows, err := s.repo.All(ctx, filter)
	if err != nil {
		return nil, db.StorageError(err, "summarize expenses")
	}
	return &Summary{Total: sum(rows).Round(2), Count: len(rows)}, nil
}

// SumForSession returns the unrounded total booked against sessionID.
func (s *service) SumForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, error) {
	rows, err := s.repo.WithTx(tx).All(ctx, Filter{CashSessionID: &sessionID})
	if err != nil {
		return decimal.Zero, db.StorageError(err, "sum session expenses")
	}
	return sum(rows), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		}
		return nil, db.StorageError(err, "load expense")
	}
	return expense, nil
}

// checkSession verifies the target session exists; cashiers may only book
// against an open one.
func (s *service) checkSession(ctx context.Context, actor auth.Actor, sessionID uuid.UUID) error {
	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cash session not found")
		}
		return db.StorageError(err, "load cash session")
	}
	if actor.Role == enums.RoleCashier && session.Status != enums.CashSessionStatusOpen {
		return pkgerrors.StateConflict(pkgerrors.ReasonSessionClosed, "cash session is closed",
			map[string]any{"cash_session_id": sessionID.String()})
	}
	return nil
}

func (s *service) checkEditable(ctx context.Context, actor auth.Actor, expense *models.Expense) error {
	if actor.IsManager() {
		return nil
	}
	if expense.CashSessionID == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only managers may change expenses outside a session")
	}
	return s.checkSession(ctx, actor, *expense.CashSessionID)
}

func authorize(actor auth.Actor) error {
	if !actor.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.HasRole(enums.RoleManager, enums.RoleCashier) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot record expenses")
	}
	return nil
}

func validateAmounts(quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	return nil
}

func validateFilter(filter Filter) error {
	for _, day := range []*string{filter.From, filter.To} {
		if day == nil {
			continue
		}
		if _, err := clock.ParseDay(*day); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date filter")
		}
	}
	return nil
}

func sum(rows []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount())
	}
	return total
}
