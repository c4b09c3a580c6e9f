package model

import (
	"time"

	"restopos/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status values. The original system called a settled order "entregado".
const (
	OrderOpen    = "open"
	OrderSettled = "settled"
)

// Order is the open tab of a table. It owns its lines; an Order with zero
// lines must not exist (removing the last line deletes the order).
//
// Subtotal/Tax/Total are lifetime figures over ALL lines, for display.
// Settlement only ever works on the pending figures (PendingTotals).
type Order struct {
	ID        uint            `gorm:"primaryKey"`
	TableID   *uint           `gorm:"index"`
	OpenedBy  uuid.UUID       `gorm:"type:uuid"`
	Status    string          `gorm:"type:varchar(20);not null;default:'open';index"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Notes     *string
	OpenedAt  time.Time `gorm:"not null"`
	UpdatedAt time.Time

	Lines []OrderLine `gorm:"foreignKey:OrderID"`
	Table *Table      `gorm:"foreignKey:TableID"`
}

func (Order) TableName() string { return "pedidos" }

// OrderLine is one product line sent to the kitchen.
// Once Invoiced is true the line is immutable and InvoiceID points at the
// invoice that settled it.
type OrderLine struct {
	ID           uint            `gorm:"primaryKey"`
	OrderID      uint            `gorm:"index;not null"`
	ProductID    uint            `gorm:"not null"`
	ProductName  string          `gorm:"type:varchar(150);not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SeatPosition *int
	Invoiced     bool  `gorm:"not null;default:false;index"`
	InvoiceID    *uint `gorm:"index"`
	Notes        *string
	CreatedAt    time.Time
}

func (OrderLine) TableName() string { return "pedido_items" }

// Subtotal is quantity × unit price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return money.LineSubtotal(l.Quantity, l.UnitPrice)
}

// PendingLines returns the lines not yet attached to an invoice, in
// insertion order. Lines must be loaded ordered by id.
func (o *Order) PendingLines() []OrderLine {
	pending := make([]OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		if !l.Invoiced {
			pending = append(pending, l)
		}
	}
	return pending
}

// PendingSubtotal is Σ quantity × unit price over the pending lines.
func (o *Order) PendingSubtotal() decimal.Decimal {
	return SumLines(o.PendingLines())
}

// PendingTotal is the tax-inclusive amount still collectible on the order.
func (o *Order) PendingTotal() decimal.Decimal {
	return money.Total(o.PendingSubtotal())
}

// PendingTotals returns subtotal, tax and total over the pending lines.
// The table projection and the settlement planner both use this, so the
// amount shown to staff is exactly the amount they can collect.
func (o *Order) PendingTotals() (subtotal, tax, total decimal.Decimal) {
	subtotal = o.PendingSubtotal()
	tax = money.Tax(subtotal)
	return subtotal, tax, subtotal.Add(tax)
}

// Recalculate refreshes the lifetime figures from every line, invoiced or not.
func (o *Order) Recalculate() {
	o.Subtotal = SumLines(o.Lines)
	o.Tax = money.Tax(o.Subtotal)
	o.Total = o.Subtotal.Add(o.Tax)
}

// HasPending reports whether any line is still uninvoiced.
func (o *Order) HasPending() bool {
	for _, l := range o.Lines {
		if !l.Invoiced {
			return true
		}
	}
	return false
}

// SumLines adds up quantity × unit price.
func SumLines(lines []OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
