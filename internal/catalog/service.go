package catalog

import (
	"context"
	"sort"

	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the slice of catalog data the order and inventory paths depend on.
type Product struct {
	ID       uuid.UUID             `json:"id"`
	Name     string                `json:"name"`
	Price    decimal.Decimal       `json:"price"`
	Category enums.ProductCategory `json:"category"`
	IsActive bool                  `json:"is_active"`
}

// Service answers price and category questions about products.
type Service interface {
	Lookup(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]Product, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Product, error)
	List(ctx context.Context, category *enums.ProductCategory) ([]Product, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

// Lookup resolves every id to an active product or fails with NOT_FOUND listing the missing ids.
func (s *service) Lookup(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return map[uuid.UUID]Product{}, nil
	}

	rows, err := s.repo.WithTx(tx).FindActiveByIDs(ctx, unique)
	if err != nil {
		return nil, db.StorageError(err, "load products")
	}

	found := make(map[uuid.UUID]Product, len(rows))
	for _, row := range rows {
		found[row.ID] = fromModel(row)
	}

	var missing []string
	for _, id := range unique {
		if _, ok := found[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"missing_product_ids": missing})
	}
	return found, nil
}

func (s *service) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Product, error) {
	products, err := s.Lookup(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	product := products[id]
	return &product, nil
}

func (s *service) List(ctx context.Context, category *enums.ProductCategory) ([]Product, error) {
	if category != nil && !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.List(ctx, category, false)
	if err != nil {
		return nil, db.StorageError(err, "list products")
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func fromModel(m models.Product) Product {
	return Product{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price,
		Category: m.Category,
		IsActive: m.IsActive,
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
