package worker

// invoice_worker.go
// Warms the Redis read cache right after a settlement commits so the first
// GET /v1/invoices/{id} (usually the receipt printer) is served from memory.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// InvoiceIssuedPayload is the job body sent to QueueInvoices.
type InvoiceIssuedPayload struct {
	InvoiceID uint   `json:"invoice_id"`
	Number    string `json:"invoice_number"`
	OrderID   uint   `json:"order_id"`
}

// InvoiceWarmer loads an invoice and stores its read model in the cache.
type InvoiceWarmer interface {
	Warm(ctx context.Context, invoiceID uint) error
}

type InvoiceWorker struct {
	warmer InvoiceWarmer
}

func NewInvoiceWorker(warmer InvoiceWarmer) *InvoiceWorker {
	return &InvoiceWorker{warmer: warmer}
}

// Process is a Handler for JobInvoiceIssued.
func (w *InvoiceWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload InvoiceIssuedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Retrying cannot fix a bad payload.
		log.Error().Err(err).Msg("invoice_worker: invalid payload")
		return nil
	}
	if payload.InvoiceID == 0 {
		log.Error().Msg("invoice_worker: missing invoice_id")
		return nil
	}

	if err := w.warmer.Warm(ctx, payload.InvoiceID); err != nil {
		return fmt.Errorf("warm invoice %d: %w", payload.InvoiceID, err)
	}
	log.Debug().
		Uint("invoice_id", payload.InvoiceID).
		Str("invoice_number", payload.Number).
		Msg("invoice_worker: cache warmed")
	return nil
}
