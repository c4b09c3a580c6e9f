package repository

import (
	"context"
	"fmt"
	"time"

	"restopos/internal/dto"
	"restopos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, id uint) (*model.Invoice, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
	NextNumber(ctx context.Context, tx *gorm.DB, year int) (string, error)
	// Totals and SumPaymentsByMethod aggregate invoices created in [from, to).
	Totals(ctx context.Context, from, to time.Time) (InvoiceTotals, error)
	SumPaymentsByMethod(ctx context.Context, from, to time.Time) ([]MethodTotal, error)
	DB() *gorm.DB
}

type InvoiceTotals struct {
	Count    int64
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// MethodTotal is what one payment method collected. Invoices paid with
// several instruments count once per payment record.
type MethodTotal struct {
	Method string
	Amount decimal.Decimal
	Count  int64
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

// Create inserts the invoice together with its lines and payment records.
func (r *invoiceRepo) Create(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error {
	return tx.WithContext(ctx).Omit("Table").Create(inv).Error
}

func (r *invoiceRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", linesByID).
		Preload("Payments", linesByID).
		Preload("Table.Area")
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uint) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.preloaded(ctx).First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Invoice{})

	if filter.OrderID != 0 {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if filter.From != "" {
		from, err := time.ParseInLocation("2006-01-02", filter.From, time.Local)
		if err != nil {
			return nil, 0, fmt.Errorf("from: %w", err)
		}
		q = q.Where("created_at >= ?", from)
	}
	if filter.To != "" {
		to, err := time.ParseInLocation("2006-01-02", filter.To, time.Local)
		if err != nil {
			return nil, 0, fmt.Errorf("to: %w", err)
		}
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Lines", linesByID).Preload("Payments", linesByID).Preload("Table.Area").
		Order("id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepo) Totals(ctx context.Context, from, to time.Time) (InvoiceTotals, error) {
	var t InvoiceTotals
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COUNT(*) AS count, COALESCE(SUM(subtotal), 0) AS subtotal, COALESCE(SUM(tax), 0) AS tax, COALESCE(SUM(total), 0) AS total").
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&t).Error
	return t, err
}

func (r *invoiceRepo) SumPaymentsByMethod(ctx context.Context, from, to time.Time) ([]MethodTotal, error) {
	var rows []MethodTotal
	err := r.db.WithContext(ctx).Model(&model.InvoicePayment{}).
		Select("factura_pagos.method AS method, COALESCE(SUM(factura_pagos.amount), 0) AS amount, COUNT(*) AS count").
		Joins("JOIN facturas ON facturas.id = factura_pagos.invoice_id").
		Where("facturas.created_at >= ? AND facturas.created_at < ?", from, to).
		Group("factura_pagos.method").
		Order("factura_pagos.method").
		Scan(&rows).Error
	return rows, err
}

// NextNumber advances the counter of year under a row lock and returns the
// formatted base number, e.g. F-0007-2026. Must run inside the settlement tx.
func (r *invoiceRepo) NextNumber(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	db := tx.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.InvoiceSequence{Year: year}).Error; err != nil {
		return "", err
	}

	var seq model.InvoiceSequence
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("year = ?", year).First(&seq).Error; err != nil {
		return "", err
	}
	seq.LastValue++
	if err := db.Model(&model.InvoiceSequence{}).Where("year = ?", year).
		Update("last_value", seq.LastValue).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("F-%04d-%04d", seq.LastValue, year), nil
}
