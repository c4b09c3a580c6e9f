package repository

import (
	"context"

	"restopos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableRepository reads tables and flips their status. Table CRUD is owned
// by another service.
type TableRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Table, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.Table, error)
	SetStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error
	// ListOccupiedWithOpenOrders returns the open orders sitting at occupied,
	// active tables, with Lines and Table.Area loaded, ordered by table number.
	ListOccupiedWithOpenOrders(ctx context.Context) ([]model.Order, error)
	// CountByStatus counts active tables per status.
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type tableRepo struct{ db *gorm.DB }

func NewTableRepository(db *gorm.DB) TableRepository { return &tableRepo{db: db} }

func (r *tableRepo) FindByID(ctx context.Context, id uint) (*model.Table, error) {
	var t model.Table
	err := r.db.WithContext(ctx).Preload("Area").First(&t, id).Error
	return &t, err
}

// FindForUpdate locks the table row; opening an order takes it so two
// waiters cannot open two orders on the same table.
func (r *tableRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.Table, error) {
	var t model.Table
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	return &t, err
}

func (r *tableRepo) SetStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error {
	return tx.WithContext(ctx).Model(&model.Table{}).Where("id = ?", id).Update("status", status).Error
}

func (r *tableRepo) ListOccupiedWithOpenOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Joins("JOIN mesas ON mesas.id = pedidos.table_id").
		Where("mesas.status = ? AND mesas.active = ? AND pedidos.status = ?",
			model.TableOccupied, true, model.OrderOpen).
		Preload("Lines", linesByID).
		Preload("Table.Area").
		Order("mesas.number ASC, pedidos.id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *tableRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Table{}).
		Select("status, COUNT(*) AS count").
		Where("active = ?", true).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
