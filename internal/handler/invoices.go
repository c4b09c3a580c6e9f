package handler

import (
	"net/http"

	"restopos/internal/dto"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct {
	svc     service.InvoiceService
	reports service.ReportService
}

func NewInvoicesHandler(svc service.InvoiceService, reports service.ReportService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc, reports: reports}
}

// Get godoc
// @Summary      Obtener factura
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int true "ID de la factura"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/invoices/{id} [get]
func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      Listar facturas
// @Description  Facturas paginadas, más recientes primero, filtradas por rango de fechas y/o pedido.
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        from     query    string false "Desde (YYYY-MM-DD, inclusive)"
// @Param        to       query    string false "Hasta (YYYY-MM-DD, inclusive)"
// @Param        order_id query    int    false "ID del pedido"
// @Param        page     query    int    false "Página"   default(1)
// @Param        limit    query    int    false "Tamaño"   default(50)
// @Success      200      {object} dto.InvoiceListResponse
// @Failure      422      {object} apierror.APIError
// @Router       /v1/invoices [get]
func (h *InvoicesHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Resumen del día
// @Description  Facturas emitidas en el día, lo cobrado por método de pago y la ocupación actual de las mesas.
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        date query    string false "Día (YYYY-MM-DD, default hoy)"
// @Success      200  {object} dto.DailySummaryResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/invoices/summary [get]
func (h *InvoicesHandler) Summary(c *gin.Context) {
	var filter dto.SummaryFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.reports.DailySummary(c.Request.Context(), filter.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
