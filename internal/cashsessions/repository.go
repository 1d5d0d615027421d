package cashsessions

import (
	"context"
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists cash sessions and reads the paid orders reconciled against them.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, session *models.CashSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CashSession, error) {
	var session models.CashSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// LockByID loads the session row FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.CashSession, error) {
	var session models.CashSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ShareLockByID loads the session row FOR SHARE so a concurrent close waits
// for the caller's transaction.
func (r *Repository) ShareLockByID(ctx context.Context, id uuid.UUID) (*models.CashSession, error) {
	var session models.CashSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *Repository) FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*models.CashSession, error) {
	var session models.CashSession
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, enums.CashSessionStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *Repository) MarkClosed(ctx context.Context, id uuid.UUID, counted decimal.NullDecimal, closedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CashSession{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":         enums.CashSessionStatusClosed,
			"counted_amount": counted,
			"closed_at":      closedAt,
			"updated_at":     closedAt,
		}).Error
}

// PaidOrders returns the session's paid orders with their lines, oldest first.
func (r *Repository) PaidOrders(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("cash_session_id = ? AND payment_status = ?", sessionID, enums.PaymentStatusPaid).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

type historyQuery struct {
	Filter HistoryFilter
	Limit  int
	Cursor *pagination.Cursor
}

// List returns sessions newest first by opened_at, one row past the limit.
func (r *Repository) List(ctx context.Context, q historyQuery) ([]models.CashSession, error) {
	query := r.db.WithContext(ctx).Model(&models.CashSession{})
	if q.Filter.OperatorID != nil {
		query = query.Where("operator_id = ?", *q.Filter.OperatorID)
	}
	if q.Filter.From != nil {
		query = query.Where("opened_at >= ?", q.Filter.From.UTC())
	}
	if q.Filter.To != nil {
		query = query.Where("opened_at <= ?", q.Filter.To.UTC())
	}
	if q.Cursor != nil {
		query = query.Where("(opened_at < ?) OR (opened_at = ? AND id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	var rows []models.CashSession
	err := query.
		Order("opened_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
