package dto

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OrderItemRequest is one line sent to the kitchen. UnitPrice is stored as
// sent; more than two decimals is a validation error, never rounded.
type OrderItemRequest struct {
	ProductID    uint            `json:"product_id"    validate:"required"`
	ProductName  string          `json:"product_name"  validate:"required,max=150"`
	Quantity     int             `json:"quantity"      validate:"required,min=1"`
	UnitPrice    decimal.Decimal `json:"unit_price"    validate:"min=0,cents"`
	SeatPosition *int            `json:"seat_position" validate:"omitempty,min=1"`
	Notes        *string         `json:"notes"         validate:"omitempty,max=255"`
}

// AppendLinesRequest sends items to the kitchen. The table's open order is
// reused; a new one is opened when there is none.
type AppendLinesRequest struct {
	TableID uint               `json:"table_id" validate:"required"`
	Notes   *string            `json:"notes"    validate:"omitempty,max=255"`
	Items   []OrderItemRequest `json:"items"    validate:"required,min=1,dive"`
}

// OrderFilter is bound from query string of GET /v1/orders.
type OrderFilter struct {
	TableID uint   `form:"table_id"`
	Status  string `form:"status"           validate:"omitempty,order_statuses"` // comma separated, e.g. open,settled
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// Statuses returns the requested statuses, nil when no filter was sent.
func (f OrderFilter) Statuses() []string { return SplitList(f.Status) }

// SplitList splits a comma separated query value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderLineResponse struct {
	ID           uint            `json:"id"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	SeatPosition *int            `json:"seat_position"`
	Invoiced     bool            `json:"invoiced"`
	InvoiceID    *uint           `json:"invoice_id"`
	Notes        *string         `json:"notes"`
}

type OrderResponse struct {
	ID          uint    `json:"id"`
	TableID     *uint   `json:"table_id"`
	TableNumber *int    `json:"table_number,omitempty"`
	AreaName    string  `json:"area_name,omitempty"`
	Status      string  `json:"status"`
	OpenedBy    string  `json:"opened_by"`
	OpenedAt    string  `json:"opened_at"`
	Notes       *string `json:"notes"`
	// Lifetime figures over every line, invoiced or not.
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	// What is still collectible.
	PendingSubtotal decimal.Decimal     `json:"pending_subtotal"`
	PendingTax      decimal.Decimal     `json:"pending_tax"`
	PendingTotal    decimal.Decimal     `json:"pending_total"`
	Lines           []OrderLineResponse `json:"lines"`
}

type RemoveLineResponse struct {
	OrderDeleted bool `json:"order_deleted"`
	TableFreed   bool `json:"table_freed"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
