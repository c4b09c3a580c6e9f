package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PaymentRequest is one payment of POST /v1/orders/{id}/settlements.
// Payer, method and amount are checked by the settlement planner so that a
// malformed payment answers INVALID_PAYMENT instead of a generic 422.
type PaymentRequest struct {
	PayerName string          `json:"payer_name"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference *string         `json:"reference"      validate:"omitempty,max=100"`
	// LineIDs wins over SeatPositions when a client sends both.
	LineIDs       []uint `json:"line_ids"       validate:"omitempty,dive,min=1"`
	SeatPositions []int  `json:"seat_positions" validate:"omitempty,dive,min=1"`
}

type SettlementRequest struct {
	// TableID is optional; when present it must match the order's table.
	TableID *uint `json:"table_id" validate:"omitempty,min=1"`
	// SingleInvoice issues one invoice for several unscoped payments.
	SingleInvoice bool             `json:"single_invoice"`
	Payments      []PaymentRequest `json:"payments" validate:"dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SettlementResponse struct {
	Invoices   []InvoiceResponse `json:"invoices"`
	IsSplit    bool              `json:"is_split"`
	TableFreed bool              `json:"table_freed"`
	// ItemsPending is true while the order still has lines to collect.
	ItemsPending bool `json:"items_pending"`
}
