package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restopos/internal/dto"
	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type InvoiceService interface {
	GetInvoice(ctx context.Context, id uint) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	// Warm loads the invoice from the database and refreshes its cache entry.
	Warm(ctx context.Context, id uint) error
}

type invoiceService struct {
	repo  repository.InvoiceRepository
	cache *infra.JSONCache
}

// NewInvoiceService accepts a nil cache; reads then always hit the database.
func NewInvoiceService(repo repository.InvoiceRepository, cache *infra.JSONCache) InvoiceService {
	return &invoiceService{repo: repo, cache: cache}
}

func invoiceCacheKey(id uint) string { return fmt.Sprintf("invoice:%d", id) }

// GetInvoice is cache-aside: invoices never change once written, so a cached
// copy is never stale.
func (s *invoiceService) GetInvoice(ctx context.Context, id uint) (*dto.InvoiceResponse, error) {
	var cached dto.InvoiceResponse
	if s.cache.Get(ctx, invoiceCacheKey(id), &cached) {
		return &cached, nil
	}

	resp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, invoiceCacheKey(id), resp); err != nil {
		log.Debug().Err(err).Uint("invoice_id", id).Msg("invoice cache set failed")
	}
	return resp, nil
}

func (s *invoiceService) Warm(ctx context.Context, id uint) error {
	resp, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, invoiceCacheKey(id), resp)
}

func (s *invoiceService) load(ctx context.Context, id uint) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, domainOrPersistence(err, "find invoice")
	}
	return invoiceToResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, domainOrPersistence(err, "list invoices")
	}

	data := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		data = append(data, *invoiceToResponse(&invoices[i]))
	}
	return &dto.InvoiceListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.Number,
		OrderID:         inv.OrderID,
		TableID:         inv.TableID,
		PayerName:       inv.PayerName,
		Subtotal:        inv.Subtotal,
		Tax:             inv.Tax,
		Total:           inv.Total,
		PaymentMethod:   inv.PaymentMethod,
		CreatedBy:       inv.CreatedBy.String(),
		Kind:            inv.Kind,
		IsSplit:         inv.IsSplit,
		ParentInvoiceID: inv.ParentInvoiceID,
		SplitSequence:   inv.SplitSequence,
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
		Lines:           make([]dto.InvoiceLineResponse, 0, len(inv.Lines)),
		Payments:        make([]dto.InvoicePaymentResponse, 0, len(inv.Payments)),
	}
	if inv.Table != nil {
		n := inv.Table.Number
		resp.TableNumber = &n
		resp.AreaName = inv.Table.AreaName()
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, dto.InvoiceLineResponse{
			OrderLineID:  l.OrderLineID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			SeatPosition: l.SeatPosition,
			Subtotal:     l.Subtotal,
		})
	}
	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, dto.InvoicePaymentResponse{
			PayerName:             p.PayerName,
			Method:                p.Method,
			Amount:                p.Amount,
			Reference:             p.Reference,
			AssignedLineIDs:       p.AssignedLineIDs,
			AssignedSeatPositions: p.AssignedSeatPositions,
		})
	}
	return resp
}
