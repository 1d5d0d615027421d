package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tablepos-backend/internal/cashsessions"
	"github.com/angelmondragon/tablepos-backend/internal/catalog"
	"github.com/angelmondragon/tablepos-backend/internal/inventory"
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
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultMaxTableNumber = 9
	defaultMaxLines       = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SessionGuard confirms an order may still be booked against a cash session.
type SessionGuard interface {
	EnsureOpen(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*cashsessions.Session, error)
}

// Service is the order engine.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Order, error)
	UpdateHeader(ctx context.Context, actor auth.Actor, orderID uuid.UUID, patch HeaderPatch) (*Order, error)
	ReplaceItems(ctx context.Context, actor auth.Actor, orderID uuid.UUID, lines []LineInput) (*Order, error)
	AddItems(ctx context.Context, actor auth.Actor, orderID uuid.UUID, lines []LineInput) (*Order, error)
	EditItem(ctx context.Context, actor auth.Actor, orderID, lineID uuid.UUID, input EditItemInput) (*Order, error)
	RemoveItem(ctx context.Context, actor auth.Actor, orderID, lineID uuid.UUID) (*Order, error)
	SetLineReady(ctx context.Context, actor auth.Actor, lineID uuid.UUID) (*Order, error)
	Pay(ctx context.Context, actor auth.Actor, orderID uuid.UUID, method *enums.PaymentMethod) (*Order, error)
	Delete(ctx context.Context, actor auth.Actor, orderID uuid.UUID) error
	Get(ctx context.Context, orderID uuid.UUID) (*Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error)
	KitchenQueue(ctx context.Context, since *time.Time) ([]Order, error)
}

type Deps struct {
	Repo           Repository
	Tx             txRunner
	Sessions       SessionGuard
	Catalog        catalog.Service
	Inventory      inventory.Service
	Clock          clock.Clock
	Location       *time.Location
	MaxTableNumber int
	MaxLines       int
	Logger         *logger.Logger
	Metrics        *metrics.POSMetrics
}

type service struct {
	repo      Repository
	tx        txRunner
	sessions  SessionGuard
	catalog   catalog.Service
	inventory inventory.Service
	clock     clock.Clock
	loc       *time.Location
	maxTable  int
	maxLines  int
	logg      *logger.Logger
	metrics   *metrics.POSMetrics
}

// NewService builds the order engine with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session guard required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if deps.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.MaxTableNumber <= 0 {
		deps.MaxTableNumber = defaultMaxTableNumber
	}
	if deps.MaxLines <= 0 {
		deps.MaxLines = defaultMaxLines
	}
	return &service{
		repo:      deps.Repo,
		tx:        deps.Tx,
		sessions:  deps.Sessions,
		catalog:   deps.Catalog,
		inventory: deps.Inventory,
		clock:     deps.Clock,
		loc:       deps.Location,
		maxTable:  deps.MaxTableNumber,
		maxLines:  deps.MaxLines,
		logg:      deps.Logger,
		metrics:   deps.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line")
	}
	if err := s.validateLines(input.Lines, 0); err != nil {
		return nil, err
	}
	if input.Type != nil && !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}
	if input.TableNumber != nil {
		if err := validateTable(*input.TableNumber, s.maxTable); err != nil {
			return nil, err
		}
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var created *models.Order
	err := s.mutate(ctx, func(tx *gorm.DB, journal *inventory.Journal) error {
		if _, err := s.sessions.EnsureOpen(ctx, tx, input.CashSessionID); err != nil {
			return err
		}

		now := s.clock.Now()
		day := clock.BusinessDay(now, s.loc)
		lines, err := s.buildLines(ctx, tx, input.Lines, defaultDestination(input.Type), day, now)
		if err != nil {
			return err
		}
		orderType, _ := DeriveType(lines)
		table, err := ApplyTypeRules(orderType, input.TableNumber, s.maxTable)
		if err != nil {
			return err
		}

		if err := journal.Apply(ctx, tx, reservations(lines)); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		seq, err := repo.NextSequence(ctx, day)
		if err != nil {
			return wrapStorage(err, "assign order number")
		}

		order := &models.Order{
			BusinessDay:    day,
			SequenceNumber: seq,
			CashSessionID:  input.CashSessionID,
			OperatorID:     actor.UserID,
			OrderType:      orderType,
			TableNumber:    table,
			PaymentMethod:  input.PaymentMethod,
			PaymentStatus:  enums.PaymentStatusUnpaid,
			KitchenStatus:  DeriveKitchenStatus(lines),
			Total:          Total(lines),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if input.PaymentStatus != nil && *input.PaymentStatus == enums.PaymentStatusPaid {
			method := resolveMethod(input.PaymentMethod, nil)
			order.PaymentMethod = &method
			order.PaymentStatus = enums.PaymentStatusPaid
			order.PaidAt = &now
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return wrapStorage(err, "create order")
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return wrapStorage(err, "create order lines")
		}
		order.Lines = lines
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrder(metrics.OrderCreated)
	if created.PaymentStatus == enums.PaymentStatusPaid {
		s.metrics.IncOrder(metrics.OrderPaid)
	}
	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"sequence_number": created.SequenceNumber,
		"business_day":    created.BusinessDay,
		"total":           created.Total.StringFixed(2),
	})
	s.logg.Info(logCtx, "order.created")

	out := fromModel(created)
	return &out, nil
}

func (s *service) UpdateHeader(ctx context.Context, actor auth.Actor, orderID uuid.UUID, patch HeaderPatch) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return nil, err
	}
	if patch.Type != nil && !patch.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}
	if patch.TableNumber.Value != nil {
		if err := validateTable(*patch.TableNumber.Value, s.maxTable); err != nil {
			return nil, err
		}
	}
	if patch.PaymentMethod != nil && !patch.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if patch.Lines != nil {
		if err := s.validateLines(patch.Lines, 0); err != nil {
			return nil, err
		}
	}

	return s.mutateOrder(ctx, orderID, func(tx *gorm.DB, journal *inventory.Journal, order *models.Order, now time.Time) error {
		if patch.TableNumber.Set {
			order.TableNumber = patch.TableNumber.Value
		}
		if patch.PaymentMethod != nil {
			order.PaymentMethod = patch.PaymentMethod
		}

		if patch.Lines != nil {
			fallbackType := order.OrderType
			if patch.Type != nil {
				fallbackType = *patch.Type
			}
			return s.replaceLines(ctx, tx, journal, order, patch.Lines, defaultDestination(&fallbackType), now)
		}
		if patch.Type != nil {
			return s.retarget(ctx, tx, order, *patch.Type, now)
		}
		return nil
	})
}

func (s *service) ReplaceItems(ctx context.Context, actor auth.Actor, orderID uuid.UUID, lines []LineInput) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return nil, err
	}
	if err := s.validateLines(lines, 0); err != nil {
		return nil, err
	}
	return s.mutateOrder(ctx, orderID, func(tx *gorm.DB, journal *inventory.Journal, order *models.Order, now time.Time) error {
		return s.replaceLines(ctx, tx, journal, order, lines, defaultDestination(&order.OrderType), now)
	})
}

func (s *service) AddItems(ctx context.Context, actor auth.Actor, orderID uuid.UUID, lines []LineInput) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if err := s.validateLines(lines, 0); err != nil {
		return nil, err
	}
	return s.mutateOrder(ctx, orderID, func(tx *gorm.DB, journal *inventory.Journal, order *models.Order, now time.Time) error {
		if len(order.Lines)+len(lines) > s.maxLines {
			return tooManyLines(s.maxLines)
		}
		added, err := s.buildLines(ctx, tx, lines, defaultDestination(&order.OrderType), clock.BusinessDay(now, s.loc), now)
		if err != nil {
			return err
		}
		if err := journal.Apply(ctx, tx, reservations(added)); err != nil {
			return err
		}
		for i := range added {
			added[i].OrderID = order.ID
		}
		return wrapStorage(s.repo.WithTx(tx).CreateLines(ctx, added), "create order lines")
	})
}

func (s *service) EditItem(ctx context.Context, actor auth.Actor, orderID, lineID uuid.UUID, input EditItemInput) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return nil, err
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Destination != nil && !input.Destination.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid destination")
	}

	return s.mutateOrder(ctx, orderID, func(tx *gorm.DB, journal *inventory.Journal, order *models.Order, now time.Time) error {
		line, err := findLine(order, lineID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if input.Quantity != nil && *input.Quantity != line.Quantity {
			diff := *input.Quantity - line.Quantity
			delta := inventory.Delta{ProductID: line.ProductID, Scope: line.StockScope, Change: -diff}
			if err := journal.Apply(ctx, tx, []inventory.Delta{delta}); err != nil {
				return err
			}
			updates["quantity"] = *input.Quantity
			updates["subtotal"] = subtotal(line.UnitPrice, *input.Quantity)
			updates["kitchen_status"] = enums.KitchenStatusPending
		}
		if input.Note.Set {
			updates["note"] = input.Note.Value
		}
		if input.Destination != nil && *input.Destination != line.Destination {
			updates["destination"] = *input.Destination
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = now
		return wrapStorage(s.repo.WithTx(tx).UpdateLine(ctx, line.ID, updates), "update order line")
	})
}

func (s *service) RemoveItem(ctx context.Context, actor auth.Actor, orderID, lineID uuid.UUID) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return nil, err
	}
	return s.mutateOrder(ctx, orderID, func(tx *gorm.DB, journal *inventory.Journal, order *models.Order, now time.Time) error {
		line, err := findLine(order, lineID)
		if err != nil {
			return err
		}
		if err := journal.Apply(ctx, tx, releases([]models.OrderLine{*line})); err != nil {
			return err
		}
		return wrapStorage(s.repo.WithTx(tx).DeleteLine(ctx, line.ID), "delete order line")
	})
}

func (s *service) SetLineReady(ctx context.Context, actor auth.Actor, lineID uuid.UUID) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleKitchen); err != nil {
		return nil, err
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindLine(ctx, lineID)
		if err != nil {
			return mapLookupError(err, "order line not found")
		}
		order, err := repo.LockOrder(ctx, line.OrderID)
		if err != nil {
			return mapLookupError(err, "order not found")
		}
		result = order

		target, err := findLine(order, lineID)
		if err != nil {
			return err
		}
		if target.KitchenStatus == enums.KitchenStatusReady {
			return nil
		}

		now := s.clock.Now()
		if err := repo.UpdateLine(ctx, target.ID, map[string]any{
			"kitchen_status": enums.KitchenStatusReady,
			"updated_at":     now,
		}); err != nil {
			return wrapStorage(err, "mark line ready")
		}
		target.KitchenStatus = enums.KitchenStatusReady
		target.UpdatedAt = now

		order.KitchenStatus = DeriveKitchenStatus(order.Lines)
		order.UpdatedAt = now
		return wrapStorage(repo.UpdateOrder(ctx, order.ID, map[string]any{
			"kitchen_status": order.KitchenStatus,
			"updated_at":     now,
		}), "update kitchen status")
	})
	if err != nil {
		return nil, err
	}
	out := fromModel(result)
	return &out, nil
}

func (s *service) Pay(ctx context.Context, actor auth.Actor, orderID uuid.UUID, method *enums.PaymentMethod) (*Order, error) {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return nil, err
	}
	if method != nil && !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return mapLookupError(err, "order not found")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.StateConflict(pkgerrors.ReasonAlreadyPaid, "order already paid",
				map[string]any{"order_id": orderID.String()})
		}

		now := s.clock.Now()
		chosen := resolveMethod(method, order.PaymentMethod)
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"payment_method": chosen,
			"paid_at":        now,
			"updated_at":     now,
		}); err != nil {
			return wrapStorage(err, "pay order")
		}
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaymentMethod = &chosen
		order.PaidAt = &now
		order.UpdatedAt = now
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrder(metrics.OrderPaid)
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"payment_method": result.PaymentMethod.String(),
		"total":          result.Total.StringFixed(2),
	})
	s.logg.Info(logCtx, "order.paid")

	out := fromModel(result)
	return &out, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, orderID uuid.UUID) error {
	if err := requireRoles(actor, enums.RoleManager, enums.RoleCashier); err != nil {
		return err
	}
	err := s.mutate(ctx, func(tx *gorm.DB, journal *inventory.Journal) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadMutable(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := journal.Apply(ctx, tx, releases(order.Lines)); err != nil {
			return err
		}
		if err := repo.DeleteLines(ctx, order.ID); err != nil {
			return wrapStorage(err, "delete order lines")
		}
		return wrapStorage(repo.DeleteOrder(ctx, order.ID), "delete order")
	})
	if err != nil {
		return err
	}
	s.metrics.IncOrder(metrics.OrderDeleted)
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order.deleted")
	return nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err, "order not found")
	}
	out := fromModel(order)
	return &out, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error) {
	limit, cursor, err := pagination.FromParams(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListOrders(ctx, filter, limit, cursor)
	if err != nil {
		return nil, wrapStorage(err, "list orders")
	}
	rows, next := pagination.Trim(rows, limit, func(m models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	items := make([]Order, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	return &OrderList{Items: items, NextCursor: next}, nil
}

func (s *service) KitchenQueue(ctx context.Context, since *time.Time) ([]Order, error) {
	rows, err := s.repo.ListKitchenQueue(ctx, since)
	if err != nil {
		return nil, wrapStorage(err, "list kitchen queue")
	}
	items := make([]Order, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	return items, nil
}

// mutate runs fn in one transaction with a fresh journal. A domain failure
// reverts the journal before the transaction rolls back; storage failures
// leave the rollback to the database.
func (s *service) mutate(ctx context.Context, fn func(tx *gorm.DB, journal *inventory.Journal) error) error {
	journal := s.inventory.NewJournal()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := fn(tx, journal); err != nil {
			if compensable(err) {
				err = multierr.Append(err, journal.Revert(ctx, tx))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	journal.Discard()
	return nil
}

// mutateOrder locks an unpaid order, applies fn and re-derives the header
// from the resulting line set.
func (s *service) mutateOrder(ctx context.Context, orderID uuid.UUID, fn func(tx *gorm.DB, journal *inventory.Journal, order *models.Order, now time.Time) error) (*Order, error) {
	var result *models.Order
	err := s.mutate(ctx, func(tx *gorm.DB, journal *inventory.Journal) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadMutable(ctx, repo, orderID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := fn(tx, journal, order, now); err != nil {
			return err
		}
		if err := s.refresh(ctx, repo, order, now); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := fromModel(result)
	return &out, nil
}

func (s *service) loadMutable(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.LockOrder(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err, "order not found")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.StateConflict(pkgerrors.ReasonOrderAlreadyPaid, "order already paid",
			map[string]any{"order_id": orderID.String()})
	}
	return order, nil
}

// refresh re-reads the lines and recomputes type, table, kitchen status and total.
func (s *service) refresh(ctx context.Context, repo Repository, order *models.Order, now time.Time) error {
	lines, err := repo.FindLines(ctx, order.ID)
	if err != nil {
		return wrapStorage(err, "reload order lines")
	}
	if derived, ok := DeriveType(lines); ok {
		order.OrderType = derived
	}
	table, err := ApplyTypeRules(order.OrderType, order.TableNumber, s.maxTable)
	if err != nil {
		return err
	}
	order.TableNumber = table
	order.KitchenStatus = DeriveKitchenStatus(lines)
	order.Total = Total(lines)
	order.UpdatedAt = now
	order.Lines = lines

	return wrapStorage(repo.UpdateOrder(ctx, order.ID, map[string]any{
		"order_type":     order.OrderType,
		"table_number":   order.TableNumber,
		"payment_method": order.PaymentMethod,
		"kitchen_status": order.KitchenStatus,
		"total":          order.Total,
		"updated_at":     now,
	}), "update order")
}

func (s *service) replaceLines(ctx context.Context, tx *gorm.DB, journal *inventory.Journal, order *models.Order, inputs []LineInput, fallback *enums.LineDestination, now time.Time) error {
	replacement, err := s.buildLines(ctx, tx, inputs, fallback, clock.BusinessDay(now, s.loc), now)
	if err != nil {
		return err
	}
	deltas := append(releases(order.Lines), reservations(replacement)...)
	if err := journal.Apply(ctx, tx, deltas); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	if err := repo.DeleteLines(ctx, order.ID); err != nil {
		return wrapStorage(err, "delete order lines")
	}
	for i := range replacement {
		replacement[i].OrderID = order.ID
	}
	return wrapStorage(repo.CreateLines(ctx, replacement), "create order lines")
}

// retarget points every line at the destination implied by t. A mixed
// order cannot be produced this way; it needs lines of both kinds.
func (s *service) retarget(ctx context.Context, tx *gorm.DB, order *models.Order, t enums.OrderType, now time.Time) error {
	if len(order.Lines) == 0 {
		order.OrderType = t
		return nil
	}
	if t == enums.OrderTypeMixed {
		if current, _ := DeriveType(order.Lines); current != enums.OrderTypeMixed {
			return pkgerrors.StateConflict(pkgerrors.ReasonMixedNeedsBoth, "mixed orders need dine-in and takeaway lines", nil)
		}
		return nil
	}

	destination := *defaultDestination(&t)
	repo := s.repo.WithTx(tx)
	for _, line := range order.Lines {
		if line.Destination == destination {
			continue
		}
		if err := repo.UpdateLine(ctx, line.ID, map[string]any{
			"destination": destination,
			"updated_at":  now,
		}); err != nil {
			return wrapStorage(err, "retarget order line")
		}
	}
	return nil
}

// buildLines resolves products and freezes name, category and price. Lines
// are stamped a microsecond apart so they read back in request order.
func (s *service) buildLines(ctx context.Context, tx *gorm.DB, inputs []LineInput, fallback *enums.LineDestination, businessDay string, now time.Time) ([]models.OrderLine, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	products := map[uuid.UUID]catalog.Product{}
	if len(ids) > 0 {
		found, err := s.catalog.Lookup(ctx, tx, ids)
		if err != nil {
			return nil, err
		}
		products = found
	}

	lines := make([]models.OrderLine, 0, len(inputs))
	for i, in := range inputs {
		destination := fallback
		if in.Destination != nil {
			destination = in.Destination
		}
		if destination == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line destination required").
				WithDetails(map[string]any{"line": i})
		}
		product := products[in.ProductID]
		stamp := now.Add(time.Duration(i) * time.Microsecond)
		lines = append(lines, models.OrderLine{
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductCategory: product.Category,
			StockScope:      inventory.ScopeFor(product.Category, businessDay),
			Quantity:        in.Quantity,
			UnitPrice:       product.Price,
			Subtotal:        subtotal(product.Price, in.Quantity),
			Note:            in.Note,
			Destination:     *destination,
			KitchenStatus:   enums.KitchenStatusPending,
			CreatedAt:       stamp,
			UpdatedAt:       stamp,
		})
	}
	return lines, nil
}

func (s *service) validateLines(lines []LineInput, existing int) error {
	if existing+len(lines) > s.maxLines {
		return tooManyLines(s.maxLines)
	}
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required").
				WithDetails(map[string]any{"line": i})
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"line": i, "quantity": line.Quantity})
		}
		if line.Destination != nil && !line.Destination.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid destination").
				WithDetails(map[string]any{"line": i})
		}
	}
	return nil
}

func reservations(lines []models.OrderLine) []inventory.Delta {
	deltas := make([]inventory.Delta, 0, len(lines))
	for _, line := range lines {
		deltas = append(deltas, inventory.Delta{ProductID: line.ProductID, Scope: line.StockScope, Change: -line.Quantity})
	}
	return deltas
}

func releases(lines []models.OrderLine) []inventory.Delta {
	deltas := make([]inventory.Delta, 0, len(lines))
	for _, line := range lines {
		deltas = append(deltas, inventory.Delta{ProductID: line.ProductID, Scope: line.StockScope, Change: line.Quantity})
	}
	return deltas
}

func defaultDestination(t *enums.OrderType) *enums.LineDestination {
	if t == nil {
		return nil
	}
	var d enums.LineDestination
	switch *t {
	case enums.OrderTypeDineIn:
		d = enums.LineDestinationDineIn
	case enums.OrderTypeTakeaway:
		d = enums.LineDestinationTakeaway
	default:
		return nil
	}
	return &d
}

// resolveMethod prefers the explicit method, then the one chosen earlier, then cash.
func resolveMethod(explicit, previous *enums.PaymentMethod) enums.PaymentMethod {
	if explicit != nil {
		return *explicit
	}
	if previous != nil {
		return *previous
	}
	return enums.PaymentMethodCash
}

func findLine(order *models.Order, lineID uuid.UUID) (*models.OrderLine, error) {
	for i := range order.Lines {
		if order.Lines[i].ID == lineID {
			return &order.Lines[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order line not found").
		WithDetails(map[string]any{"order_id": order.ID.String(), "line_id": lineID.String()})
}

func requireRoles(actor auth.Actor, roles ...enums.Role) error {
	if !actor.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.HasRole(roles...) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted for this operation").
			WithDetails(map[string]any{"role": actor.Role.String()})
	}
	return nil
}

func tooManyLines(max int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "too many order lines").
		WithDetails(map[string]any{"max": max})
}

// compensable reports whether err is a domain failure after which the
// journal can still run against the open transaction.
func compensable(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	switch typed.Code() {
	case pkgerrors.CodeDependency, pkgerrors.CodeInternal:
		return false
	case pkgerrors.CodeConflict:
		// a failed statement aborts the postgres transaction
		return !db.IsUniqueViolation(err, "")
	default:
		return true
	}
}

func mapLookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return db.StorageError(err, "load order")
}

func wrapStorage(err error, message string) error {
	if err == nil {
		return nil
	}
	return db.StorageError(err, message)
}
