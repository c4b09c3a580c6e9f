package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubInvoiceRepo is an in-memory InvoiceRepository.
type stubInvoiceRepo struct {
	invoices  map[uint]*model.Invoice
	findCalls int
	lastList  dto.InvoiceFilter
	failWith  error
}

func newStubInvoiceRepo(invs ...*model.Invoice) *stubInvoiceRepo {
	r := &stubInvoiceRepo{invoices: make(map[uint]*model.Invoice)}
	for _, inv := range invs {
		r.invoices[inv.ID] = inv
	}
	return r
}

func (r *stubInvoiceRepo) Create(_ context.Context, _ *gorm.DB, inv *model.Invoice) error {
	inv.ID = uint(len(r.invoices) + 1)
	r.invoices[inv.ID] = inv
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uint) (*model.Invoice, error) {
	r.findCalls++
	if r.failWith != nil {
		return nil, r.failWith
	}
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInvoiceRepo) List(_ context.Context, f dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	r.lastList = f
	out := make([]model.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (r *stubInvoiceRepo) NextNumber(_ context.Context, _ *gorm.DB, year int) (string, error) {
	return "F-0001-2026", nil
}

func (r *stubInvoiceRepo) Totals(_ context.Context, _, _ time.Time) (repository.InvoiceTotals, error) {
	return repository.InvoiceTotals{}, r.failWith
}

func (r *stubInvoiceRepo) SumPaymentsByMethod(_ context.Context, _, _ time.Time) ([]repository.MethodTotal, error) {
	return nil, r.failWith
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

func sampleInvoice() *model.Invoice {
	tableID := uint(3)
	return &model.Invoice{
		ID:            11,
		Number:        "F-0004-2026",
		OrderID:       5,
		TableID:       &tableID,
		PayerName:     "Ana",
		Subtotal:      decimal.RequireFromString("25.00"),
		Tax:           decimal.RequireFromString("4.50"),
		Total:         decimal.RequireFromString("29.50"),
		PaymentMethod: model.MethodCash,
		CreatedBy:     uuid.New(),
		SplitSequence: 1,
		Kind:          model.InvoiceSingle,
		CreatedAt:     time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC),
		Table:         &model.Table{ID: tableID, Number: 12, Area: &model.Area{Name: "Terraza"}},
		Lines: []model.InvoiceLine{
			{OrderLineID: 1, ProductName: "Mofongo", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("20.00")},
		},
		Payments: []model.InvoicePayment{
			{PayerName: "Ana", Method: model.MethodCash, Amount: decimal.RequireFromString("29.50")},
		},
	}
}

func TestGetInvoice_WithoutCacheReadsRepository(t *testing.T) {
	repo := newStubInvoiceRepo(sampleInvoice())
	svc := NewInvoiceService(repo, nil)

	resp, err := svc.GetInvoice(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "F-0004-2026", resp.InvoiceNumber)
	require.NotNil(t, resp.TableNumber)
	assert.Equal(t, 12, *resp.TableNumber)
	assert.Equal(t, "Terraza", resp.AreaName)
	assert.Equal(t, "2026-03-14T22:00:00Z", resp.CreatedAt)
	assert.Len(t, resp.Lines, 1)
	assert.Len(t, resp.Payments, 1)

	_, err = svc.GetInvoice(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.findCalls)
}

func TestGetInvoice_NotFound(t *testing.T) {
	svc := NewInvoiceService(newStubInvoiceRepo(), nil)

	_, err := svc.GetInvoice(context.Background(), 404)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestGetInvoice_StorageErrorIsHidden(t *testing.T) {
	repo := newStubInvoiceRepo()
	repo.failWith = errors.New("connection reset by peer")
	svc := NewInvoiceService(repo, nil)

	_, err := svc.GetInvoice(context.Background(), 1)
	require.ErrorIs(t, err, ErrPersistenceFailure)

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ErrPersistenceFailure.Message, de.Message)
	assert.EqualError(t, errors.Unwrap(err), "connection reset by peer")
}

func TestWarm_WithoutCacheIsNoop(t *testing.T) {
	svc := NewInvoiceService(newStubInvoiceRepo(sampleInvoice()), nil)
	assert.NoError(t, svc.Warm(context.Background(), 11))
	assert.ErrorIs(t, svc.Warm(context.Background(), 12), ErrInvoiceNotFound)
}

func TestListInvoices_DefaultsPaging(t *testing.T) {
	repo := newStubInvoiceRepo(sampleInvoice())
	svc := NewInvoiceService(repo, nil)

	resp, err := svc.ListInvoices(context.Background(), dto.InvoiceFilter{OrderID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 50, resp.Limit)
	assert.Equal(t, uint(5), repo.lastList.OrderID)
	assert.Equal(t, 50, repo.lastList.Limit)
}
