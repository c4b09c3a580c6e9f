package service

import (
	"context"
	"fmt"
	"time"

	"restopos/internal/dto"
	"restopos/internal/money"
	"restopos/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportService builds the cashier's end-of-day figures.
type ReportService interface {
	// DailySummary totals the invoices issued on date (YYYY-MM-DD, local
	// time; empty means today) and reports the current table occupancy.
	DailySummary(ctx context.Context, date string) (*dto.DailySummaryResponse, error)
}

type reportService struct {
	invoices repository.InvoiceRepository
	tables   repository.TableRepository
	now      func() time.Time
}

func NewReportService(invoices repository.InvoiceRepository, tables repository.TableRepository) ReportService {
	return &reportService{invoices: invoices, tables: tables, now: time.Now}
}

func (s *reportService) DailySummary(ctx context.Context, date string) (*dto.DailySummaryResponse, error) {
	day, err := s.dayStart(date)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	next := day.AddDate(0, 0, 1)

	totals, err := s.invoices.Totals(ctx, day, next)
	if err != nil {
		return nil, domainOrPersistence(err, "invoice totals")
	}
	byMethod, err := s.invoices.SumPaymentsByMethod(ctx, day, next)
	if err != nil {
		return nil, domainOrPersistence(err, "payments by method")
	}
	tables, err := s.tables.CountByStatus(ctx)
	if err != nil {
		return nil, domainOrPersistence(err, "table counts")
	}

	resp := &dto.DailySummaryResponse{
		Date:         day.Format("2006-01-02"),
		InvoiceCount: totals.Count,
		Subtotal:     money.Round(totals.Subtotal),
		Tax:          money.Round(totals.Tax),
		Total:        money.Round(totals.Total),
		ByMethod:     make([]dto.MethodSummary, 0, len(byMethod)),
		Collected:    decimal.Zero,
		Tables:       tables,
	}
	for _, m := range byMethod {
		amount := money.Round(m.Amount)
		resp.ByMethod = append(resp.ByMethod, dto.MethodSummary{Method: m.Method, Amount: amount, Payments: m.Count})
		resp.Collected = resp.Collected.Add(amount)
	}
	return resp, nil
}

func (s *reportService) dayStart(date string) (time.Time, error) {
	if date == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	return time.ParseInLocation("2006-01-02", date, time.Local)
}
