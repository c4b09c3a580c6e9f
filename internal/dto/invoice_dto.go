package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// InvoiceFilter is bound from query string of GET /v1/invoices.
type InvoiceFilter struct {
	From    string `form:"from"     validate:"omitempty,datetime=2006-01-02"` // inclusive
	To      string `form:"to"       validate:"omitempty,datetime=2006-01-02"` // inclusive
	OrderID uint   `form:"order_id"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// SummaryFilter is bound from query string of GET /v1/invoices/summary.
type SummaryFilter struct {
	Date string `form:"date" validate:"omitempty,datetime=2006-01-02"` // default today
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceLineResponse struct {
	OrderLineID  uint            `json:"order_line_id"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SeatPosition *int            `json:"seat_position"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type InvoicePaymentResponse struct {
	PayerName             string          `json:"payer_name"`
	Method                string          `json:"method"`
	Amount                decimal.Decimal `json:"amount"`
	Reference             *string         `json:"reference"`
	AssignedLineIDs       []uint          `json:"assigned_line_ids"`
	AssignedSeatPositions []int           `json:"assigned_seat_positions"`
}

type InvoiceResponse struct {
	ID              uint                     `json:"id"`
	InvoiceNumber   string                   `json:"invoice_number"`
	OrderID         uint                     `json:"order_id"`
	TableID         *uint                    `json:"table_id"`
	TableNumber     *int                     `json:"table_number,omitempty"`
	AreaName        string                   `json:"area_name,omitempty"`
	PayerName       string                   `json:"payer_name"`
	Subtotal        decimal.Decimal          `json:"subtotal"`
	Tax             decimal.Decimal          `json:"tax"`
	Total           decimal.Decimal          `json:"total"`
	PaymentMethod   string                   `json:"payment_method"`
	CreatedBy       string                   `json:"created_by"`
	Kind            string                   `json:"kind"`
	IsSplit         bool                     `json:"is_split"`
	ParentInvoiceID *uint                    `json:"parent_invoice_id"`
	SplitSequence   int                      `json:"split_sequence"`
	CreatedAt       string                   `json:"created_at"`
	Lines           []InvoiceLineResponse    `json:"lines"`
	Payments        []InvoicePaymentResponse `json:"payments"`
}

// MethodSummary is what one payment method collected during the day.
type MethodSummary struct {
	Method   string          `json:"method"`
	Amount   decimal.Decimal `json:"amount"`
	Payments int64           `json:"payments"`
}

// DailySummaryResponse is the end-of-day figure the cashier checks against
// the drawer.
type DailySummaryResponse struct {
	Date         string           `json:"date"`
	InvoiceCount int64            `json:"invoice_count"`
	Subtotal     decimal.Decimal  `json:"subtotal"`
	Tax          decimal.Decimal  `json:"tax"`
	Total        decimal.Decimal  `json:"total"`
	ByMethod     []MethodSummary  `json:"by_method"`
	Collected    decimal.Decimal  `json:"collected"`
	Tables       map[string]int64 `json:"tables"`
}
