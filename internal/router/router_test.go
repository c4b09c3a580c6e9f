package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"restopos/internal/apierror"
	"restopos/internal/config"
	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/model"
	"restopos/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "router-test-secret"

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	engine  *gin.Engine
	db      *gorm.DB
	cashier string
	waiter  string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := &config.Config{
		Env:                "test",
		CORSOrigin:         "*",
		RateLimitPerMinute: 1000,
		JWTSecret:          jwtSecret,
	}
	return &testEnv{
		engine:  New(cfg, db, nil, nil, nil),
		db:      db,
		cashier: testutil.Token(t, jwtSecret, uuid.NewString(), middleware.RoleCajero),
		waiter:  testutil.Token(t, jwtSecret, uuid.NewString(), middleware.RoleMesero),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func settle(amount string) map[string]any {
	return map[string]any{
		"payments": []map[string]any{
			{"payer_name": "Ana", "method": "cash", "amount": amount},
		},
	}
}

// standardOrder: 2×500 + 1×300 → subtotal 1300, tax 234, total 1534.
func standardOrder(t *testing.T, db *gorm.DB) (*model.Table, *model.Order) {
	table := testutil.SeedTable(t, db, 5, model.TableFree)
	order := testutil.SeedOrder(t, db, table,
		testutil.LineSpec{Qty: 2, Price: "500.00"},
		testutil.LineSpec{Qty: 1, Price: "300.00"},
	)
	return table, order
}

// ── Public ───────────────────────────────────────────────────────────────────

func TestHealth_RedisDisabled(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodGet, "/v1/tables/occupied-with-pending", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ── Settlements ──────────────────────────────────────────────────────────────

func TestSettle_SinglePaymentFreesTable(t *testing.T) {
	env := setup(t)
	table, order := standardOrder(t, env.db)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/orders/%d/settlements", order.ID), settle("1534.00"), env.cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[dto.SettlementResponse](t, w)
	require.Len(t, resp.Invoices, 1)
	inv := resp.Invoices[0]
	assert.False(t, resp.IsSplit)
	assert.True(t, resp.TableFreed)
	assert.False(t, resp.ItemsPending)
	assert.Contains(t, w.Body.String(), `"items_pending":false`)
	assert.Regexp(t, `^F-0001-\d{4}$`, inv.InvoiceNumber)
	assert.True(t, decimal.RequireFromString("1534").Equal(inv.Total))
	assert.Equal(t, "cash", inv.PaymentMethod)
	assert.Len(t, inv.Lines, 2)

	var reloaded model.Table
	require.NoError(t, env.db.First(&reloaded, table.ID).Error)
	assert.Equal(t, model.TableFree, reloaded.Status)

	// The invoice is readable right away.
	got := env.do(t, http.MethodGet, fmt.Sprintf("/v1/invoices/%d", inv.ID), nil, env.cashier)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, inv.InvoiceNumber, decode[dto.InvoiceResponse](t, got).InvoiceNumber)

	list := env.do(t, http.MethodGet, fmt.Sprintf("/v1/invoices?order_id=%d", order.ID), nil, env.cashier)
	require.Equal(t, http.StatusOK, list.Code)
	page := decode[dto.InvoiceListResponse](t, list)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.Limit)
}

func TestSettle_SplitBySeats(t *testing.T) {
	env := setup(t)
	table := testutil.SeedTable(t, env.db, 7, model.TableFree)
	order := testutil.SeedOrder(t, env.db, table,
		testutil.LineSpec{Qty: 1, Price: "100.00", Seat: testutil.Seat(1)},
		testutil.LineSpec{Qty: 1, Price: "200.00", Seat: testutil.Seat(2)},
	)
	body := map[string]any{
		"payments": []map[string]any{
			{"payer_name": "Ana", "method": "cash", "amount": "118.00", "seat_positions": []int{1}},
			{"payer_name": "Luis", "method": "card", "amount": "236.00", "seat_positions": []int{2}},
		},
	}

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/orders/%d/settlements", order.ID), body, env.cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[dto.SettlementResponse](t, w)
	require.Len(t, resp.Invoices, 2)
	assert.True(t, resp.IsSplit)
	assert.True(t, resp.TableFreed)
	assert.Regexp(t, `-A$`, resp.Invoices[0].InvoiceNumber)
	assert.Regexp(t, `-B$`, resp.Invoices[1].InvoiceNumber)
	assert.Equal(t, []int{2}, resp.Invoices[1].Payments[0].AssignedSeatPositions)
}

func TestSettle_MismatchEnvelope(t *testing.T) {
	env := setup(t)
	_, order := standardOrder(t, env.db)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/orders/%d/settlements", order.ID), settle("1000.00"), env.cashier)
	require.Equal(t, http.StatusBadRequest, w.Code)

	apiErr := decode[apierror.APIError](t, w)
	assert.Equal(t, "PAYMENT_MISMATCH", apiErr.Code)
	assert.Equal(t, "1000.00", apiErr.Fields["payments_total"])
	assert.Equal(t, "1534.00", apiErr.Fields["amount_to_settle"])
	assert.EqualValues(t, 2, apiErr.Fields["items_count"])

	var invoices int64
	require.NoError(t, env.db.Model(&model.Invoice{}).Count(&invoices).Error)
	assert.Zero(t, invoices)
}

func TestSettle_Errors(t *testing.T) {
	env := setup(t)
	table, order := standardOrder(t, env.db)
	path := fmt.Sprintf("/v1/orders/%d/settlements", order.ID)

	cases := []struct {
		name   string
		path   string
		body   any
		token  string
		status int
		code   string
	}{
		{"waiter cannot settle", path, settle("1534.00"), env.waiter, http.StatusForbidden, "FORBIDDEN"},
		{"bad id", "/v1/orders/abc/settlements", settle("1534.00"), env.cashier, http.StatusBadRequest, "BAD_REQUEST"},
		{"malformed json", path, `{"payments": [`, env.cashier, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown order", "/v1/orders/999/settlements", settle("1534.00"), env.cashier, http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"no payments", path, map[string]any{"payments": []any{}}, env.cashier, http.StatusBadRequest, "INVALID_PAYMENT"},
		{"unknown method", path, map[string]any{"payments": []map[string]any{
			{"payer_name": "Ana", "method": "crypto", "amount": "1534.00"},
		}}, env.cashier, http.StatusBadRequest, "INVALID_PAYMENT"},
		{"wrong table", path, map[string]any{
			"table_id": table.ID + 100,
			"payments": []map[string]any{{"payer_name": "Ana", "method": "cash", "amount": "1534.00"}},
		}, env.cashier, http.StatusBadRequest, "TABLE_MISMATCH"},
		{"seat validation", path, map[string]any{"payments": []map[string]any{
			{"payer_name": "Ana", "method": "cash", "amount": "1534.00", "seat_positions": []int{0}},
		}}, env.cashier, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tc.path, tc.body, tc.token)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decode[apierror.APIError](t, w).Code)
		})
	}
}

func TestSettle_TwiceAnswersNoPendingItems(t *testing.T) {
	env := setup(t)
	_, order := standardOrder(t, env.db)
	path := fmt.Sprintf("/v1/orders/%d/settlements", order.ID)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path, settle("1534.00"), env.cashier).Code)

	w := env.do(t, http.MethodPost, path, settle("1534.00"), env.cashier)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_PENDING_ITEMS", decode[apierror.APIError](t, w).Code)
}

// ── Orders / tables ──────────────────────────────────────────────────────────

func TestOrders_AppendListRemove(t *testing.T) {
	env := setup(t)
	table := testutil.SeedTable(t, env.db, 3, model.TableFree)

	w := env.do(t, http.MethodPost, "/v1/orders", map[string]any{
		"table_id": table.ID,
		"items": []map[string]any{
			{"product_id": 10, "product_name": "Mofongo", "quantity": 2, "unit_price": "250.00", "seat_position": 1},
		},
	}, env.waiter)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[dto.OrderResponse](t, w)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, model.OrderOpen, order.Status)
	assert.True(t, decimal.RequireFromString("590").Equal(order.PendingTotal))

	got := env.do(t, http.MethodGet, fmt.Sprintf("/v1/orders/%d", order.ID), nil, env.waiter)
	require.Equal(t, http.StatusOK, got.Code)

	occupied := env.do(t, http.MethodGet, "/v1/tables/occupied-with-pending", nil, env.waiter)
	require.Equal(t, http.StatusOK, occupied.Code)
	rows := decode[[]dto.OccupiedTableResponse](t, occupied)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].TableNumber)
	assert.Equal(t, "Salón", rows[0].AreaName)

	del := env.do(t, http.MethodDelete, fmt.Sprintf("/v1/orders/%d/lines/%d", order.ID, order.Lines[0].ID), nil, env.waiter)
	require.Equal(t, http.StatusOK, del.Code, del.Body.String())
	removed := decode[dto.RemoveLineResponse](t, del)
	assert.True(t, removed.OrderDeleted)
	assert.True(t, removed.TableFreed)

	gone := env.do(t, http.MethodGet, fmt.Sprintf("/v1/orders/%d", order.ID), nil, env.waiter)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestOrders_ValidationFields(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/v1/orders", map[string]any{"table_id": 1, "items": []any{}}, env.waiter)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	apiErr := decode[apierror.APIError](t, w)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, "min", apiErr.Fields["AppendLinesRequest.Items"])
}

func TestOrders_UnknownTable(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/v1/orders", map[string]any{
		"table_id": 42,
		"items":    []map[string]any{{"product_id": 1, "product_name": "Café", "quantity": 1, "unit_price": "80.00"}},
	}, env.waiter)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TABLE_NOT_FOUND", decode[apierror.APIError](t, w).Code)
}

func TestOrders_ListFilters(t *testing.T) {
	env := setup(t)
	_, settled := standardOrder(t, env.db)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, fmt.Sprintf("/v1/orders/%d/settlements", settled.ID), settle("1534.00"), env.cashier).Code)

	bar := testutil.SeedTable(t, env.db, 8, model.TableFree)
	first := testutil.SeedOrder(t, env.db, bar, testutil.LineSpec{Qty: 1, Price: "80.00"})
	require.NoError(t, env.db.Model(&model.Order{}).Where("id = ?", first.ID).Update("status", model.OrderSettled).Error)
	open := testutil.SeedOrder(t, env.db, bar, testutil.LineSpec{Qty: 1, Price: "120.00"})

	w := env.do(t, http.MethodGet, "/v1/orders?status=open", nil, env.waiter)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	onlyOpen := decode[dto.OrderListResponse](t, w)
	require.EqualValues(t, 1, onlyOpen.Total)
	assert.Equal(t, open.ID, onlyOpen.Data[0].ID)
	require.NotNil(t, onlyOpen.Data[0].TableNumber)
	assert.Equal(t, 8, *onlyOpen.Data[0].TableNumber)
	assert.Equal(t, "Salón", onlyOpen.Data[0].AreaName)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/orders?table_id=%d&status=open,settled", bar.ID), nil, env.waiter)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	atBar := decode[dto.OrderListResponse](t, w)
	require.Len(t, atBar.Data, 2)
	assert.Equal(t, []uint{open.ID, first.ID}, []uint{atBar.Data[0].ID, atBar.Data[1].ID}, "newest first")

	w = env.do(t, http.MethodGet, "/v1/orders?limit=2&page=2", nil, env.waiter)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paged := decode[dto.OrderListResponse](t, w)
	assert.EqualValues(t, 3, paged.Total)
	require.Len(t, paged.Data, 1)
	assert.Equal(t, settled.ID, paged.Data[0].ID)
	assert.Equal(t, model.OrderSettled, paged.Data[0].Status)

	bad := env.do(t, http.MethodGet, "/v1/orders?status=open,voided", nil, env.waiter)
	require.Equal(t, http.StatusUnprocessableEntity, bad.Code)
	assert.Equal(t, "order_statuses", decode[apierror.APIError](t, bad).Fields["OrderFilter.Status"])
}

func TestOrders_UnitPriceBeyondCentsRejected(t *testing.T) {
	env := setup(t)
	table := testutil.SeedTable(t, env.db, 4, model.TableFree)
	body := func(price string) map[string]any {
		return map[string]any{
			"table_id": table.ID,
			"items":    []map[string]any{{"product_id": 1, "product_name": "Café", "quantity": 1, "unit_price": price}},
		}
	}

	w := env.do(t, http.MethodPost, "/v1/orders", body("10.005"), env.waiter)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "cents", decode[apierror.APIError](t, w).Fields["AppendLinesRequest.Items[0].UnitPrice"])

	ok := env.do(t, http.MethodPost, "/v1/orders", body("10.50"), env.waiter)
	require.Equal(t, http.StatusCreated, ok.Code, ok.Body.String())
	order := decode[dto.OrderResponse](t, ok)
	assert.True(t, decimal.RequireFromString("10.50").Equal(order.Lines[0].UnitPrice))
}

func TestInvoices_WaiterForbiddenAndFilterValidation(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/invoices", nil, env.waiter).Code)

	w := env.do(t, http.MethodGet, "/v1/invoices?from=14-03-2026", nil, env.cashier)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	missing := env.do(t, http.MethodGet, "/v1/invoices/77", nil, env.cashier)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "INVOICE_NOT_FOUND", decode[apierror.APIError](t, missing).Code)
}

func TestInvoices_DailySummary(t *testing.T) {
	env := setup(t)
	_, order := standardOrder(t, env.db)
	testutil.SeedTable(t, env.db, 6, model.TableFree)

	body := map[string]any{
		"single_invoice": true,
		"payments": []map[string]any{
			{"payer_name": "Ana", "method": "cash", "amount": "1000.00"},
			{"payer_name": "Ana", "method": "card", "amount": "534.00"},
		},
	}
	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/orders/%d/settlements", order.ID), body, env.cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/invoices/summary", nil, env.waiter).Code)

	got := env.do(t, http.MethodGet, "/v1/invoices/summary", nil, env.cashier)
	require.Equal(t, http.StatusOK, got.Code, got.Body.String())
	summary := decode[dto.DailySummaryResponse](t, got)
	assert.EqualValues(t, 1, summary.InvoiceCount)
	assert.True(t, decimal.RequireFromString("1534").Equal(summary.Total))
	require.Len(t, summary.ByMethod, 2)
	assert.Equal(t, "card", summary.ByMethod[0].Method)
	assert.True(t, decimal.RequireFromString("534").Equal(summary.ByMethod[0].Amount))
	assert.True(t, summary.Collected.Equal(summary.Total))
	assert.Equal(t, map[string]int64{model.TableFree: 2}, summary.Tables)

	past := env.do(t, http.MethodGet, "/v1/invoices/summary?date=2001-01-01", nil, env.cashier)
	require.Equal(t, http.StatusOK, past.Code)
	assert.Zero(t, decode[dto.DailySummaryResponse](t, past).InvoiceCount)

	bad := env.do(t, http.MethodGet, "/v1/invoices/summary?date=14-03-2026", nil, env.cashier)
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
}
