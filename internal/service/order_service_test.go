package service

import (
	"context"
	"testing"
	"time"

	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"
	"restopos/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrderService(t *testing.T) (*gorm.DB, OrderService) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewOrderService(repository.NewOrderRepository(db), repository.NewTableRepository(db)).(*orderService)
	svc.now = func() time.Time { return fixedNow }
	return db, svc
}

func item(name string, qty int, price string, seat *int) dto.OrderItemRequest {
	return dto.OrderItemRequest{
		ProductID:    1,
		ProductName:  name,
		Quantity:     qty,
		UnitPrice:    decimal.RequireFromString(price),
		SeatPosition: seat,
	}
}

func TestAppendLines_OpensOrderAndOccupiesTable(t *testing.T) {
	db, svc := newOrderService(t)
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	actor := uuid.New()

	resp, err := svc.AppendLines(context.Background(), actor, dto.AppendLinesRequest{
		TableID: table.ID,
		Items: []dto.OrderItemRequest{
			item("Mofongo", 2, "10.00", testutil.Seat(1)),
			item("Jugo", 1, "5.00", nil),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderOpen, resp.Status)
	assert.Equal(t, actor.String(), resp.OpenedBy)
	assert.Equal(t, "2026-03-14T21:30:00Z", resp.OpenedAt)
	assert.Equal(t, "29.50", resp.Total.StringFixed(2))
	assert.Equal(t, "29.50", resp.PendingTotal.StringFixed(2))
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "Mofongo", resp.Lines[0].ProductName)
	assert.Equal(t, "20.00", resp.Lines[0].Subtotal.StringFixed(2))

	var tbl model.Table
	require.NoError(t, db.First(&tbl, table.ID).Error)
	assert.Equal(t, model.TableOccupied, tbl.Status)
}

func TestAppendLines_ReusesOpenOrder(t *testing.T) {
	db, svc := newOrderService(t)
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	ctx := context.Background()

	first, err := svc.AppendLines(ctx, uuid.New(), dto.AppendLinesRequest{
		TableID: table.ID,
		Items:   []dto.OrderItemRequest{item("Mofongo", 2, "10.00", nil)},
	})
	require.NoError(t, err)

	second, err := svc.AppendLines(ctx, uuid.New(), dto.AppendLinesRequest{
		TableID: table.ID,
		Items:   []dto.OrderItemRequest{item("Jugo", 1, "5.00", nil)},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Lines, 2)
	assert.Equal(t, "25.00", second.Subtotal.StringFixed(2))
	assert.Equal(t, "4.50", second.Tax.StringFixed(2))

	var n int64
	require.NoError(t, db.Model(&model.Order{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAppendLines_LifetimeTotalsIncludeInvoicedLines(t *testing.T) {
	db, svc := newOrderService(t)
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	testutil.SeedOrder(t, db, table,
		testutil.LineSpec{Qty: 1, Price: "10.00", Invoiced: true},
		testutil.LineSpec{Qty: 1, Price: "10.00"},
	)

	resp, err := svc.AppendLines(context.Background(), uuid.New(), dto.AppendLinesRequest{
		TableID: table.ID,
		Items:   []dto.OrderItemRequest{item("Postre", 1, "5.00", nil)},
	})
	require.NoError(t, err)

	assert.Equal(t, "25.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "15.00", resp.PendingSubtotal.StringFixed(2))
	assert.Equal(t, "17.70", resp.PendingTotal.StringFixed(2))
}

func TestAppendLines_UnknownOrInactiveTable(t *testing.T) {
	db, svc := newOrderService(t)
	req := dto.AppendLinesRequest{TableID: 77, Items: []dto.OrderItemRequest{item("Jugo", 1, "5.00", nil)}}

	_, err := svc.AppendLines(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, ErrTableNotFound)

	table := testutil.SeedTable(t, db, 6, model.TableFree)
	require.NoError(t, db.Model(&model.Table{}).Where("id = ?", table.ID).Update("active", false).Error)
	req.TableID = table.ID
	_, err = svc.AppendLines(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestGetOrder_NotFound(t *testing.T) {
	_, svc := newOrderService(t)
	_, err := svc.GetOrder(context.Background(), 9)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRemoveLine_RecomputesTotals(t *testing.T) {
	db, svc := newOrderService(t)
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	order := testutil.SeedOrder(t, db, table,
		testutil.LineSpec{Qty: 2, Price: "10.00"},
		testutil.LineSpec{Qty: 1, Price: "5.00"},
	)

	resp, err := svc.RemoveLine(context.Background(), order.ID, order.Lines[1].ID)
	require.NoError(t, err)
	assert.False(t, resp.OrderDeleted)
	assert.False(t, resp.TableFreed)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)
	assert.Equal(t, "23.60", got.Total.StringFixed(2))
}

func TestRemoveLine_LastLineDeletesOrderAndFreesTable(t *testing.T) {
	db, svc := newOrderService(t)
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	order := testutil.SeedOrder(t, db, table, testutil.LineSpec{Qty: 1, Price: "5.00"})

	resp, err := svc.RemoveLine(context.Background(), order.ID, order.Lines[0].ID)
	require.NoError(t, err)
	assert.True(t, resp.OrderDeleted)
	assert.True(t, resp.TableFreed)

	_, err = svc.GetOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	var tbl model.Table
	require.NoError(t, db.First(&tbl, table.ID).Error)
	assert.Equal(t, model.TableFree, tbl.Status)
}

func TestRemoveLine_LastPendingLineSettlesOrder(t *testing.T) {
	db, svc := newOrderService(t)
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	order := testutil.SeedOrder(t, db, table,
		testutil.LineSpec{Qty: 1, Price: "8.47", Invoiced: true},
		testutil.LineSpec{Qty: 1, Price: "16.53"},
	)

	resp, err := svc.RemoveLine(context.Background(), order.ID, order.Lines[1].ID)
	require.NoError(t, err)
	assert.False(t, resp.OrderDeleted)
	assert.True(t, resp.TableFreed)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderSettled, got.Status)
}

func TestRemoveLine_RejectsInvoicedForeignOrMissingLines(t *testing.T) {
	db, svc := newOrderService(t)
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	order := testutil.SeedOrder(t, db, table,
		testutil.LineSpec{Qty: 1, Price: "10.00", Invoiced: true},
		testutil.LineSpec{Qty: 1, Price: "10.00"},
	)
	other := testutil.SeedOrder(t, db, nil, testutil.LineSpec{Qty: 1, Price: "1.00"})
	ctx := context.Background()

	_, err := svc.RemoveLine(ctx, order.ID, order.Lines[0].ID)
	assert.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.RemoveLine(ctx, order.ID, other.Lines[0].ID)
	assert.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.RemoveLine(ctx, order.ID, 4242)
	assert.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.RemoveLine(ctx, 4242, order.Lines[1].ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
