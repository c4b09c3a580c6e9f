// Package testutil opens throwaway GORM databases for package tests.
package testutil

import (
	"testing"

	"restopos/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns an isolated in-memory SQLite database with every model
// migrated. A single connection is kept open, so code running inside a
// transaction must only use the tx handle.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Area{},
		&model.Table{},
		&model.Order{},
		&model.OrderLine{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.InvoicePayment{},
		&model.InvoiceSequence{},
	))
	return db
}

// SeedTable inserts an active table with the given number and status.
func SeedTable(t *testing.T, db *gorm.DB, number int, status string) *model.Table {
	t.Helper()
	area := model.Area{Name: "Salón", Active: true}
	require.NoError(t, db.Create(&area).Error)
	table := model.Table{Number: number, Capacity: 4, AreaID: &area.ID, Status: status, Active: true}
	require.NoError(t, db.Create(&table).Error)
	table.Area = &area
	return &table
}

// LineSpec describes a line for SeedOrder.
type LineSpec struct {
	Qty      int
	Price    string
	Seat     *int
	Invoiced bool
}

// SeedOrder inserts an open order at table with the given lines and marks the
// table occupied. Lines come back in insertion order with their ids.
func SeedOrder(t *testing.T, db *gorm.DB, table *model.Table, lines ...LineSpec) *model.Order {
	t.Helper()
	var tableID *uint
	if table != nil {
		id := table.ID
		tableID = &id
		require.NoError(t, db.Model(&model.Table{}).Where("id = ?", id).Update("status", model.TableOccupied).Error)
	}
	order := model.Order{
		TableID:  tableID,
		OpenedBy: uuid.New(),
		Status:   model.OrderOpen,
	}
	for i, l := range lines {
		order.Lines = append(order.Lines, model.OrderLine{
			ProductID:    uint(i + 1),
			ProductName:  "Plato " + string(rune('A'+i)),
			Quantity:     l.Qty,
			UnitPrice:    decimal.RequireFromString(l.Price),
			SeatPosition: l.Seat,
			Invoiced:     l.Invoiced,
		})
	}
	order.Recalculate()
	require.NoError(t, db.Omit("Table").Create(&order).Error)
	return &order
}

// Seat returns a pointer to n.
func Seat(n int) *int { return &n }
