package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/tablepos-backend/internal/catalog"
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
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the inventory ledger. Reserve and Release run inside the
// caller's transaction; the administrative operations open their own.
type Service interface {
	Available(ctx context.Context, productID uuid.UUID, scope string) (int, error)
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, scope string) error
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, scope string) error
	SetDailyQuota(ctx context.Context, input SetDailyQuotaInput) (*StockChange, error)
	Ingress(ctx context.Context, input IngressInput) (*StockChange, error)
	Shrink(ctx context.Context, input ShrinkInput) (*StockChange, error)
	ListAvailability(ctx context.Context, day string) ([]AvailabilityItem, error)
	ListMovements(ctx context.Context, actor auth.Actor, filter MovementFilter, params pagination.Params) (*MovementList, error)
	NewJournal() *Journal
}

// Deps groups the collaborators of the ledger.
type Deps struct {
	Repo     *Repository
	Products catalog.Service
	Tx       txRunner
	Clock    clock.Clock
	Location *time.Location
	Logger   *logger.Logger
	Metrics  *metrics.POSMetrics
}

type service struct {
	repo     *Repository
	products catalog.Service
	tx       txRunner
	clock    clock.Clock
	loc      *time.Location
	logg     *logger.Logger
	metrics  *metrics.POSMetrics
}

func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &service{
		repo:     deps.Repo,
		products: deps.Products,
		tx:       deps.Tx,
		clock:    deps.Clock,
		loc:      deps.Location,
		logg:     deps.Logger,
		metrics:  deps.Metrics,
	}, nil
}

func (s *service) NewJournal() *Journal {
	return newJournal(s, s.logg, s.metrics)
}

func (s *service) Available(ctx context.Context, productID uuid.UUID, scope string) (int, error) {
	qty, err := s.repo.AvailableQty(ctx, productID, scope)
	if err != nil {
		return 0, db.StorageError(err, "read available stock")
	}
	return qty, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, scope string) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive").
			WithDetails(map[string]any{"quantity": qty})
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for stock reservation")
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.DecrementIfAvailable(ctx, productID, scope, qty, s.clock.Now())
	if err != nil {
		return wrapStorage(err, "reserve stock")
	}
	if !ok {
		available, readErr := repo.AvailableQty(ctx, productID, scope)
		if readErr != nil {
			return wrapStorage(readErr, "read available stock")
		}
		s.metrics.IncReservation(metrics.ReservationInsufficient)
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"scope":      scope,
			"available":  available,
			"requested":  qty,
		})
		s.logg.Warn(logCtx, "inventory.insufficient_stock")
		return insufficient(productID, scope, available, qty)
	}

	s.metrics.IncReservation(metrics.ReservationOK)
	s.metrics.AddUnits(metrics.UnitsReserved, qty)
	return nil
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, scope string) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive").
			WithDetails(map[string]any{"quantity": qty})
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for stock release")
	}
	if err := s.repo.WithTx(tx).Increment(ctx, productID, scope, qty, s.clock.Now()); err != nil {
		return wrapStorage(err, "release stock")
	}
	s.metrics.AddUnits(metrics.UnitsReleased, qty)
	return nil
}

func (s *service) SetDailyQuota(ctx context.Context, input SetDailyQuotaInput) (*StockChange, error) {
	if err := requireManager(input.Actor); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quota cannot be negative")
	}
	if strings.TrimSpace(input.Day) == "" {
		input.Day = clock.BusinessDay(s.clock.Now(), s.loc)
	}
	if _, err := clock.ParseDay(input.Day); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid day")
	}

	var result StockChange
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products.Get(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}
		if product.Category != enums.ProductCategoryDish {
			return pkgerrors.New(pkgerrors.CodeValidation, "daily quotas apply to dishes only")
		}

		repo := s.repo.WithTx(tx)
		now := s.clock.Now()
		scope := DayScope(input.Day)
		if err := repo.EnsureRecord(ctx, product.ID, scope, now); err != nil {
			return wrapStorage(err, "ensure inventory record")
		}
		record, err := repo.LockRecord(ctx, product.ID, scope)
		if err != nil {
			return wrapStorage(err, "lock inventory record")
		}

		delta := input.Quantity - record.AvailableQty
		if err := repo.SetQuantity(ctx, record.ID, input.Quantity, input.Notes, now); err != nil {
			return wrapStorage(err, "set daily quota")
		}
		record.AvailableQty = input.Quantity
		record.UpdatedAt = now
		if input.Notes != nil {
			record.Notes = input.Notes
		}
		result.Record = recordFromModel(record)

		if delta == 0 {
			return nil
		}
		kind := enums.MovementKindIngress
		if delta < 0 {
			kind = enums.MovementKindShrinkage
			delta = -delta
		}
		movement, err := s.appendMovement(ctx, repo, record, kind, delta, ReasonOpening, input.Actor, now)
		if err != nil {
			return err
		}
		result.Movement = movement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Ingress(ctx context.Context, input IngressInput) (*StockChange, error) {
	if err := requireManager(input.Actor); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingress quantity must be positive")
	}
	reason := defaultReason(input.Reason, ReasonIngress)

	var result StockChange
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products.Get(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}
		if product.Category != enums.ProductCategoryBeverage {
			return pkgerrors.New(pkgerrors.CodeValidation, "ingress applies to beverages only")
		}

		repo := s.repo.WithTx(tx)
		now := s.clock.Now()
		if err := repo.Increment(ctx, product.ID, GlobalScope, input.Quantity, now); err != nil {
			return wrapStorage(err, "add beverage stock")
		}
		record, err := repo.FindRecord(ctx, product.ID, GlobalScope)
		if err != nil {
			return wrapStorage(err, "reload inventory record")
		}
		result.Record = recordFromModel(record)

		movement, err := s.appendMovement(ctx, repo, record, enums.MovementKindIngress, input.Quantity, reason, input.Actor, now)
		if err != nil {
			return err
		}
		result.Movement = movement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Shrink(ctx context.Context, input ShrinkInput) (*StockChange, error) {
	if err := requireManager(input.Actor); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shrinkage quantity must be positive")
	}
	reason := defaultReason(input.Reason, ReasonShrinkage)

	var result StockChange
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products.Get(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}
		scope := strings.TrimSpace(input.Scope)
		if scope == "" && product.Category == enums.ProductCategoryBeverage {
			scope = GlobalScope
		}
		if err := validateScope(product.Category, scope); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		now := s.clock.Now()
		ok, err := repo.DecrementIfAvailable(ctx, product.ID, scope, input.Quantity, now)
		if err != nil {
			return wrapStorage(err, "remove stock")
		}
		if !ok {
			available, readErr := repo.AvailableQty(ctx, product.ID, scope)
			if readErr != nil {
				return wrapStorage(readErr, "read available stock")
			}
			return insufficient(product.ID, scope, available, input.Quantity)
		}

		record, err := repo.FindRecord(ctx, product.ID, scope)
		if err != nil {
			return wrapStorage(err, "reload inventory record")
		}
		result.Record = recordFromModel(record)

		movement, err := s.appendMovement(ctx, repo, record, enums.MovementKindShrinkage, input.Quantity, reason, input.Actor, now)
		if err != nil {
			return err
		}
		result.Movement = movement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ListAvailability(ctx context.Context, day string) ([]AvailabilityItem, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		day = clock.BusinessDay(s.clock.Now(), s.loc)
	}
	if _, err := clock.ParseDay(day); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid day")
	}

	rows, err := s.repo.ListAvailability(ctx, day)
	if err != nil {
		return nil, wrapStorage(err, "list availability")
	}
	items := make([]AvailabilityItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, AvailabilityItem(row))
	}
	return items, nil
}

func (s *service) ListMovements(ctx context.Context, actor auth.Actor, filter MovementFilter, params pagination.Params) (*MovementList, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	limit, cursor, err := pagination.FromParams(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListMovements(ctx, movementQuery{Filter: filter, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, wrapStorage(err, "list movements")
	}
	rows, next := pagination.Trim(rows, limit, func(row movementRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})

	items := make([]Movement, 0, len(rows))
	for _, row := range rows {
		items = append(items, Movement(row))
	}
	return &MovementList{Items: items, NextCursor: next}, nil
}

func (s *service) appendMovement(ctx context.Context, repo *Repository, record *models.InventoryRecord, kind enums.MovementKind, qty int, reason string, actor auth.Actor, now time.Time) (*Movement, error) {
	movement := &models.InventoryMovement{
		RecordID:  record.ID,
		Kind:      kind,
		Quantity:  qty,
		Reason:    reason,
		CreatedAt: now,
	}
	if actor.UserID != uuid.Nil {
		actorID := actor.UserID
		movement.ActorID = &actorID
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, wrapStorage(err, "append inventory movement")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": record.ProductID.String(),
		"scope":      record.Scope,
		"kind":       kind.String(),
		"quantity":   qty,
		"reason":     reason,
	})
	s.logg.Info(logCtx, "inventory.movement_recorded")
	return movementFromModel(movement, record), nil
}

func requireManager(actor auth.Actor) error {
	if !actor.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsManager() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "manager role required")
	}
	return nil
}

func defaultReason(reason, fallback string) string {
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		return trimmed
	}
	return fallback
}

func insufficient(productID uuid.UUID, scope string, available, requested int) error {
	return pkgerrors.InsufficientStock(productID.String(), scope, available, requested)
}

// wrapStorage maps a storage failure to a typed error, keeping not-found
// distinct from transient failures.
func wrapStorage(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "inventory record not found")
	}
	return db.StorageError(err, message)
}
