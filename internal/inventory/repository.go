package inventory

import (
	"context"
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists inventory records and their movement log.
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

// DecrementIfAvailable subtracts qty in a single statement guarded by
// available_qty >= qty. It reports false when the guard rejected the update
// or the record does not exist.
func (r *Repository) DecrementIfAvailable(ctx context.Context, productID uuid.UUID, scope string, qty int, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET available_qty = available_qty - ?,
			updated_at = ?
		WHERE product_id = ? AND scope = ? AND available_qty >= ?
	`, qty, now, productID, scope, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Increment adds qty, creating the record when it does not exist yet.
func (r *Repository) Increment(ctx context.Context, productID uuid.UUID, scope string, qty int, now time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO inventory_records (id, product_id, scope, available_qty, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (product_id, scope) DO UPDATE
		SET available_qty = inventory_records.available_qty + excluded.available_qty,
			updated_at = excluded.updated_at
	`, uuid.New(), productID, scope, qty, now, now).Error
}

// EnsureRecord creates an empty record for (productID, scope) if missing.
func (r *Repository) EnsureRecord(ctx context.Context, productID uuid.UUID, scope string, now time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO inventory_records (id, product_id, scope, available_qty, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT (product_id, scope) DO NOTHING
	`, uuid.New(), productID, scope, now, now).Error
}

// LockRecord reads the record with a row lock held until the transaction ends.
func (r *Repository) LockRecord(ctx context.Context, productID uuid.UUID, scope string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND scope = ?", productID, scope).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) FindRecord(ctx context.Context, productID uuid.UUID, scope string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND scope = ?", productID, scope).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// AvailableQty returns the units on hand, 0 when no record exists.
func (r *Repository) AvailableQty(ctx context.Context, productID uuid.UUID, scope string) (int, error) {
	var rows []int
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ? AND scope = ?", productID, scope).
		Pluck("available_qty", &rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0], nil
}

func (r *Repository) SetQuantity(ctx context.Context, recordID uuid.UUID, qty int, notes *string, now time.Time) error {
	updates := map[string]any{
		"available_qty": qty,
		"updated_at":    now,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	return r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ?", recordID).
		UpdateColumns(updates).Error
}

func (r *Repository) CreateMovement(ctx context.Context, movement *models.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

type availabilityRow struct {
	ProductID    uuid.UUID
	ProductName  string
	Category     enums.ProductCategory
	Scope        string
	AvailableQty int
	UpdatedAt    time.Time
}

// ListAvailability joins dish records for day with every beverage record.
func (r *Repository) ListAvailability(ctx context.Context, day string) ([]availabilityRow, error) {
	var rows []availabilityRow
	err := r.db.WithContext(ctx).
		Table("inventory_records AS r").
		Select("r.product_id, p.name AS product_name, p.category, r.scope, r.available_qty, r.updated_at").
		Joins("JOIN products p ON p.id = r.product_id").
		Where("(p.category = ? AND r.scope = ?) OR (p.category = ? AND r.scope = ?)",
			enums.ProductCategoryDish, DayScope(day), enums.ProductCategoryBeverage, GlobalScope).
		Order("p.category ASC").
		Order("p.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type movementRow struct {
	ID        uuid.UUID
	RecordID  uuid.UUID
	ProductID uuid.UUID
	Scope     string
	Kind      enums.MovementKind
	Quantity  int
	Reason    string
	ActorID   *uuid.UUID
	CreatedAt time.Time
}

type movementQuery struct {
	Filter MovementFilter
	Limit  int
	Cursor *pagination.Cursor
}

// ListMovements returns movements newest first, fetching one extra row so
// callers can tell whether a next page exists.
func (r *Repository) ListMovements(ctx context.Context, q movementQuery) ([]movementRow, error) {
	query := r.db.WithContext(ctx).
		Table("inventory_movements AS m").
		Select("m.id, m.record_id, r.product_id, r.scope, m.kind, m.quantity, m.reason, m.actor_id, m.created_at").
		Joins("JOIN inventory_records r ON r.id = m.record_id")

	if q.Filter.ProductID != nil {
		query = query.Where("r.product_id = ?", *q.Filter.ProductID)
	}
	if q.Filter.Scope != nil {
		query = query.Where("r.scope = ?", *q.Filter.Scope)
	}
	if q.Cursor != nil {
		query = query.Where("(m.created_at < ?) OR (m.created_at = ? AND m.id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	var rows []movementRow
	err := query.
		Order("m.created_at DESC").
		Order("m.id DESC").
		Limit(pagination.LimitWithBuffer(q.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
