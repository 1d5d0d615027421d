package expenses

import (
	"context"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

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

func (r *Repository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *Repository) Save(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Expense{}).Error
}

// FindSession reads the session an expense is booked against.
func (r *Repository) FindSession(ctx context.Context, id uuid.UUID) (*models.CashSession, error) {
	var session models.CashSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *Repository) filtered(ctx context.Context, filter Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Expense{})
	if filter.CashSessionID != nil {
		query = query.Where("cash_session_id = ?", *filter.CashSessionID)
	}
	if filter.From != nil {
		query = query.Where("spent_on >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("spent_on <= ?", *filter.To)
	}
	return query
}

// List returns expenses newest first, one row past the limit.
func (r *Repository) List(ctx context.Context, filter Filter, limit int, cursor *pagination.Cursor) ([]models.Expense, error) {
	var rows []models.Expense
	if err := r.filtered(ctx, filter).Scopes(pagination.Keyset(limit, cursor)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// All returns every expense matching filter, for totals computed in Go.
func (r *Repository) All(ctx context.Context, filter Filter) ([]models.Expense, error) {
	var rows []models.Expense
	if err := r.filtered(ctx, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
