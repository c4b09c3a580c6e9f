package dto

import "github.com/shopspring/decimal"

// OccupiedTableResponse is one row of GET /v1/tables/occupied-with-pending.
type OccupiedTableResponse struct {
	TableID         uint            `json:"table_id"`
	TableNumber     int             `json:"table_number"`
	AreaName        string          `json:"area_name"`
	OrderID         uint            `json:"order_id"`
	OrderStatus     string          `json:"order_status"`
	OpenedAt        string          `json:"opened_at"`
	PendingSubtotal decimal.Decimal `json:"pending_subtotal"`
	PendingTax      decimal.Decimal `json:"pending_tax"`
	PendingTotal    decimal.Decimal `json:"pending_total"`
}
