// Package dbtest opens throwaway SQLite databases migrated with the
// application models, plus a few fixtures shared by service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// Open returns an isolated in-memory database. The pool is pinned to one
// connection so concurrent callers serialize the same way row locks would
// serialize them on Postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:tp_%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromConn(conn, 0), conn
}

// Product inserts an active product.
func Product(t testing.TB, conn *gorm.DB, name string, category enums.ProductCategory, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: category,
		IsActive: true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

// Stock sets the available units of a product within a scope directly,
// bypassing the ledger.
func Stock(t testing.TB, conn *gorm.DB, productID uuid.UUID, scope string, qty int) *models.InventoryRecord {
	t.Helper()
	record := &models.InventoryRecord{ProductID: productID, Scope: scope, AvailableQty: qty}
	if err := conn.Create(record).Error; err != nil {
		t.Fatalf("create inventory record: %v", err)
	}
	return record
}

// Available reads the current units for a product and scope, 0 when missing.
func Available(t testing.TB, conn *gorm.DB, productID uuid.UUID, scope string) int {
	t.Helper()
	var rows []models.InventoryRecord
	if err := conn.Where("product_id = ? AND scope = ?", productID, scope).Find(&rows).Error; err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	if len(rows) == 0 {
		return 0
	}
	return rows[0].AvailableQty
}
