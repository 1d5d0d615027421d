package cashsessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/auth"
	"github.com/angelmondragon/tablepos-backend/pkg/clock"
	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const openSessionConstraint = "cash_sessions_one_open_per_operator"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ExpenseTotals sums the expenses recorded against a session.
type ExpenseTotals interface {
	SumForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, error)
}

// Service manages register shifts and their reconciliation.
type Service interface {
	Open(ctx context.Context, actor auth.Actor, openingFloat decimal.Decimal) (*Session, error)
	Close(ctx context.Context, actor auth.Actor, sessionID uuid.UUID, counted *decimal.Decimal) (*CloseResult, error)
	Reconcile(ctx context.Context, sessionID uuid.UUID) (*Reconciliation, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	CurrentFor(ctx context.Context, operatorID uuid.UUID) (*Session, error)
	History(ctx context.Context, actor auth.Actor, filter HistoryFilter, params pagination.Params) (*SessionList, error)
	EnsureOpen(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*Session, error)
}

type Deps struct {
	Repo     *Repository
	Expenses ExpenseTotals
	Tx       txRunner
	Clock    clock.Clock
	Logger   *logger.Logger
	Metrics  *metrics.POSMetrics
}

type service struct {
	repo     *Repository
	expenses ExpenseTotals
	tx       txRunner
	clock    clock.Clock
	logg     *logger.Logger
	metrics  *metrics.POSMetrics
}

func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("cash session repository required")
	}
	if deps.Expenses == nil {
		return nil, fmt.Errorf("expense totals required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	return &service{
		repo:     deps.Repo,
		expenses: deps.Expenses,
		tx:       deps.Tx,
		clock:    deps.Clock,
		logg:     deps.Logger,
		metrics:  deps.Metrics,
	}, nil
}

func (s *service) Open(ctx context.Context, actor auth.Actor, openingFloat decimal.Decimal) (*Session, error) {
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.HasRole(enums.RoleManager, enums.RoleCashier) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only cashiers and managers operate a register")
	}
	if openingFloat.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening float cannot be negative")
	}

	now := s.clock.Now()
	session := &models.CashSession{
		OperatorID:   actor.UserID,
		Status:       enums.CashSessionStatusOpen,
		OpeningFloat: openingFloat,
		OpenedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, session)
	})
	if err != nil {
		if isOpenSessionViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "operator already has an open cash session")
		}
		return nil, db.StorageError(err, "open cash session")
	}

	s.metrics.IncSession(metrics.SessionOpened)
	logCtx := s.logg.WithSessionID(ctx, session.ID.String())
	logCtx = s.logg.WithUserID(logCtx, actor.UserID.String())
	s.logg.Info(logCtx, "cash_session.opened")

	out := fromModel(session)
	return &out, nil
}

func (s *service) Close(ctx context.Context, actor auth.Actor, sessionID uuid.UUID, counted *decimal.Decimal) (*CloseResult, error) {
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if counted != nil && counted.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted amount cannot be negative")
	}

	var result CloseResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		session, err := repo.LockByID(ctx, sessionID)
		if err != nil {
			return mapLookupError(err, "load cash session")
		}
		if err := authorizeClose(actor, session); err != nil {
			return err
		}
		if session.Status == enums.CashSessionStatusClosed {
			return pkgerrors.StateConflict(pkgerrors.ReasonSessionAlreadyClosed, "cash session already closed",
				map[string]any{"cash_session_id": sessionID.String()})
		}

		closedAt := s.clock.Now()
		countedValue := decimal.NullDecimal{}
		if counted != nil {
			countedValue = decimal.NewNullDecimal(*counted)
		}
		if err := repo.MarkClosed(ctx, session.ID, countedValue, closedAt); err != nil {
			return db.StorageError(err, "close cash session")
		}
		session.Status = enums.CashSessionStatusClosed
		session.CountedAmount = countedValue
		session.ClosedAt = &closedAt

		recon, err := s.reconcile(ctx, tx, session)
		if err != nil {
			return err
		}
		result = CloseResult{Session: fromModel(session), Reconciliation: *recon}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSession(metrics.SessionClosed)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"cash_session_id": sessionID.String(),
		"closed_by":       actor.UserID.String(),
		"expected_cash":   result.Reconciliation.ExpectedCash.String(),
	})
	s.logg.Info(logCtx, "cash_session.closed")
	return &result, nil
}

func (s *service) Reconcile(ctx context.Context, sessionID uuid.UUID) (*Reconciliation, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, mapLookupError(err, "load cash session")
	}
	return s.reconcile(ctx, nil, session)
}

func (s *service) reconcile(ctx context.Context, tx *gorm.DB, session *models.CashSession) (*Reconciliation, error) {
	windowEnd := s.clock.Now()
	if session.ClosedAt != nil {
		windowEnd = *session.ClosedAt
	}

	orders, err := s.repo.WithTx(tx).PaidOrders(ctx, session.ID)
	if err != nil {
		return nil, db.StorageError(err, "load paid orders")
	}
	orders = withinWindow(orders, session.OpenedAt, windowEnd)

	expenses, err := s.expenses.SumForSession(ctx, tx, session.ID)
	if err != nil {
		return nil, err
	}

	var counted *decimal.Decimal
	if session.CountedAmount.Valid {
		value := session.CountedAmount.Decimal
		counted = &value
	}

	recon := Summarize(orders, session.OpeningFloat, expenses, counted)
	recon.SessionID = session.ID
	recon.WindowStart = session.OpenedAt
	recon.WindowEnd = windowEnd
	return &recon, nil
}

func (s *service) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, mapLookupError(err, "load cash session")
	}
	out := fromModel(session)
	return &out, nil
}

func (s *service) CurrentFor(ctx context.Context, operatorID uuid.UUID) (*Session, error) {
	session, err := s.repo.FindOpenByOperator(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open cash session")
		}
		return nil, db.StorageError(err, "load open cash session")
	}
	out := fromModel(session)
	return &out, nil
}

func (s *service) History(ctx context.Context, actor auth.Actor, filter HistoryFilter, params pagination.Params) (*SessionList, error) {
	if !actor.IsManager() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager role required")
	}
	limit, cursor, err := pagination.FromParams(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, historyQuery{Filter: filter, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, db.StorageError(err, "list cash sessions")
	}
	rows, next := pagination.Trim(rows, limit, func(m models.CashSession) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.OpenedAt, ID: m.ID}
	})

	items := make([]Session, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	return &SessionList{Items: items, NextCursor: next}, nil
}

func (s *service) EnsureOpen(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*Session, error) {
	session, err := s.repo.WithTx(tx).ShareLockByID(ctx, sessionID)
	if err != nil {
		return nil, mapLookupError(err, "load cash session")
	}
	if session.Status != enums.CashSessionStatusOpen {
		return nil, pkgerrors.StateConflict(pkgerrors.ReasonSessionClosed, "cash session is closed",
			map[string]any{"cash_session_id": sessionID.String()})
	}
	out := fromModel(session)
	return &out, nil
}

func authorizeClose(actor auth.Actor, session *models.CashSession) error {
	switch actor.Role {
	case enums.RoleManager:
		return nil
	case enums.RoleCashier:
		if session.OperatorID == actor.UserID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "cashiers may only close their own session")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot close cash sessions")
	}
}

func isOpenSessionViolation(err error) bool {
	return db.IsUniqueViolation(err, openSessionConstraint) ||
		db.IsUniqueViolation(err, "cash_sessions.operator_id")
}

func mapLookupError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cash session not found")
	}
	return db.StorageError(err, message)
}

func withinWindow(orders []models.Order, start, end time.Time) []models.Order {
	kept := orders[:0]
	for _, order := range orders {
		if order.CreatedAt.Before(start) || order.CreatedAt.After(end) {
			continue
		}
		kept = append(kept, order)
	}
	return kept
}
