package repository

import (
	"context"
	"errors"

	"restopos/internal/dto"
	"restopos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLinesAlreadyInvoiced is returned by MarkInvoiced when fewer rows than
// requested flipped from pending to invoiced.
var ErrLinesAlreadyInvoiced = errors.New("order lines already invoiced")

// OrderRepository is the data access contract for orders and their lines.
// Methods taking tx must run inside the caller's transaction; the order row
// lock taken by FindForUpdate lasts until that transaction ends.
type OrderRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	// TableIDOf reads an order's table id without locking anything.
	TableIDOf(ctx context.Context, tx *gorm.DB, id uint) (*uint, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.Order, error)
	FindOpenByTableForUpdate(ctx context.Context, tx *gorm.DB, tableID uint) (*model.Order, error)
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	AddLines(ctx context.Context, tx *gorm.DB, orderID uint, lines []model.OrderLine) error
	DeleteLine(ctx context.Context, tx *gorm.DB, orderID, lineID uint) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	UpdateTotals(ctx context.Context, tx *gorm.DB, o *model.Order) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error
	CountPending(ctx context.Context, tx *gorm.DB, orderID uint) (int64, error)
	MarkInvoiced(ctx context.Context, tx *gorm.DB, orderID uint, lineIDs []uint, invoiceID uint) error
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func linesByID(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

func (r *orderRepo) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", linesByID).
		Preload("Table.Area").
		First(&o, id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.TableID != 0 {
		q = q.Where("table_id = ?", filter.TableID)
	}
	if statuses := filter.Statuses(); len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Lines", linesByID).Preload("Table.Area").
		Order("opened_at DESC, id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepo) TableIDOf(ctx context.Context, tx *gorm.DB, id uint) (*uint, error) {
	var o model.Order
	if err := tx.WithContext(ctx).Select("id", "table_id").First(&o, id).Error; err != nil {
		return nil, err
	}
	return o.TableID, nil
}

func (r *orderRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.Order, error) {
	var o model.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, id).Error
	if err != nil {
		return nil, err
	}
	// Lines are read after the lock so the pending set cannot be stale.
	if err := tx.WithContext(ctx).Where("order_id = ?", o.ID).Order("id ASC").Find(&o.Lines).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindOpenByTableForUpdate(ctx context.Context, tx *gorm.DB, tableID uint) (*model.Order, error) {
	var o model.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("table_id = ? AND status = ?", tableID, model.OrderOpen).
		Order("id DESC").
		First(&o).Error
	if err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("order_id = ?", o.ID).Order("id ASC").Find(&o.Lines).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

// AddLines inserts the lines under orderID and fills in their ids.
func (r *orderRepo) AddLines(ctx context.Context, tx *gorm.DB, orderID uint, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].OrderID = orderID
	}
	return tx.WithContext(ctx).Create(&lines).Error
}

// DeleteLine only removes a pending line of orderID. Returns rows affected.
func (r *orderRepo) DeleteLine(ctx context.Context, tx *gorm.DB, orderID, lineID uint) (int64, error) {
	res := tx.WithContext(ctx).
		Where("id = ? AND order_id = ? AND invoiced = ?", lineID, orderID, false).
		Delete(&model.OrderLine{})
	return res.RowsAffected, res.Error
}

func (r *orderRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := tx.WithContext(ctx).Where("order_id = ?", id).Delete(&model.OrderLine{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(&model.Order{}, id).Error
}

func (r *orderRepo) UpdateTotals(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Model(&model.Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
		"subtotal": o.Subtotal,
		"tax":      o.Tax,
		"total":    o.Total,
	}).Error
}

func (r *orderRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error {
	return tx.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepo) CountPending(ctx context.Context, tx *gorm.DB, orderID uint) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&model.OrderLine{}).
		Where("order_id = ? AND invoiced = ?", orderID, false).
		Count(&n).Error
	return n, err
}

// MarkInvoiced flips the given pending lines to invoiced. The invoiced = false
// guard plus the row count check turn a lost race into an error instead of a
// line attached to two invoices.
func (r *orderRepo) MarkInvoiced(ctx context.Context, tx *gorm.DB, orderID uint, lineIDs []uint, invoiceID uint) error {
	if len(lineIDs) == 0 {
		return nil
	}
	res := tx.WithContext(ctx).Model(&model.OrderLine{}).
		Where("order_id = ? AND id IN ? AND invoiced = ?", orderID, lineIDs, false).
		Updates(map[string]interface{}{
			"invoiced":   true,
			"invoice_id": invoiceID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(lineIDs)) {
		return ErrLinesAlreadyInvoiced
	}
	return nil
}
