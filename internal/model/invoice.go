package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice kinds.
const (
	InvoiceSingle = "single"
	InvoiceSplit  = "split"
)

// Payment methods.
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
	// MethodMultiple is only ever stored on the invoice header.
	MethodMultiple = "multiple"
)

// Invoice is a finalized settlement document. Created once by the settlement
// service, never updated, never deleted.
//
// Split groups: the first invoice of the group has ParentInvoiceID nil and
// every later invoice points at it. SplitSequence is 1-based in caller order.
type Invoice struct {
	ID              uint            `gorm:"primaryKey"`
	Number          string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	OrderID         uint            `gorm:"index;not null"`
	TableID         *uint           `gorm:"index"`
	PayerName       string          `gorm:"type:varchar(150);not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid;not null"`
	IsSplit         bool            `gorm:"not null;default:false"`
	ParentInvoiceID *uint           `gorm:"index"`
	SplitSequence   int             `gorm:"not null;default:1"`
	Kind            string          `gorm:"type:varchar(10);not null"`
	CreatedAt       time.Time       `gorm:"index"`

	Lines    []InvoiceLine    `gorm:"foreignKey:InvoiceID"`
	Payments []InvoicePayment `gorm:"foreignKey:InvoiceID"`
	Table    *Table           `gorm:"foreignKey:TableID"`
}

func (Invoice) TableName() string { return "facturas" }

// InvoiceLine is a durable copy of an OrderLine taken when it was invoiced.
type InvoiceLine struct {
	ID           uint            `gorm:"primaryKey"`
	InvoiceID    uint            `gorm:"index;not null"`
	OrderLineID  uint            `gorm:"index;not null"`
	ProductID    uint            `gorm:"not null"`
	ProductName  string          `gorm:"type:varchar(150);not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SeatPosition *int
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (InvoiceLine) TableName() string { return "factura_items" }

// InvoicePayment records one payment instrument used on an invoice.
// AssignedLineIDs / AssignedSeatPositions keep the scope the payer asked for.
type InvoicePayment struct {
	ID                    uint                      `gorm:"primaryKey"`
	InvoiceID             uint                      `gorm:"index;not null"`
	PayerName             string                    `gorm:"type:varchar(150);not null"`
	Method                string                    `gorm:"type:varchar(20);not null"`
	Amount                decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
	Reference             *string                   `gorm:"type:varchar(100)"`
	AssignedLineIDs       datatypes.JSONSlice[uint] `gorm:"column:assigned_line_ids"`
	AssignedSeatPositions datatypes.JSONSlice[int]  `gorm:"column:assigned_seat_positions"`
	CreatedAt             time.Time
}

func (InvoicePayment) TableName() string { return "factura_pagos" }

// InvoiceSequence is the year-stamped running invoice counter.
type InvoiceSequence struct {
	Year      int `gorm:"primaryKey;autoIncrement:false"`
	LastValue int `gorm:"not null;default:0"`
}

func (InvoiceSequence) TableName() string { return "factura_secuencias" }

// NewInvoiceLine snapshots an order line.
func NewInvoiceLine(l OrderLine) InvoiceLine {
	return InvoiceLine{
		OrderLineID:  l.ID,
		ProductID:    l.ProductID,
		ProductName:  l.ProductName,
		Quantity:     l.Quantity,
		UnitPrice:    l.UnitPrice,
		SeatPosition: l.SeatPosition,
		Subtotal:     l.Subtotal(),
	}
}

// PaymentsTotal is Σ amount over the invoice's payment records.
func (i *Invoice) PaymentsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range i.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}
