package handler

import (
	"net/http"

	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// AppendLines godoc
// @Summary      Enviar items a cocina
// @Description  Agrega items al pedido abierto de la mesa. Si la mesa no tiene pedido abierto se crea uno y la mesa pasa a ocupada.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.AppendLinesRequest true "Mesa e items"
// @Success      201  {object} dto.OrderResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/orders [post]
func (h *OrdersHandler) AppendLines(c *gin.Context) {
	var req dto.AppendLinesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AppendLines(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Obtener pedido
// @Description  Pedido con sus items y los totales pendientes de facturar.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int true "ID del pedido"
// @Success      200  {object} dto.OrderResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/orders/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      Listar pedidos
// @Description  Pedidos del más reciente al más antiguo, con número de mesa y totales pendientes.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        table_id query    int    false "ID de la mesa"
// @Param        status   query    string false "Estados separados por coma (open,settled)"
// @Param        page     query    int    false "Página (default 1)"
// @Param        limit    query    int    false "Tamaño de página (default 50, máx 200)"
// @Success      200      {object} dto.OrderListResponse
// @Failure      422      {object} apierror.APIError
// @Router       /v1/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveLine godoc
// @Summary      Eliminar item del pedido
// @Description  Elimina un item no facturado. Si era el último item se elimina el pedido y se libera la mesa.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id      path     int true "ID del pedido"
// @Param        line_id path     int true "ID del item"
// @Success      200     {object} dto.RemoveLineResponse
// @Failure      404     {object} apierror.APIError
// @Router       /v1/orders/{id}/lines/{line_id} [delete]
func (h *OrdersHandler) RemoveLine(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := uintParam(c, "line_id")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveLine(c.Request.Context(), id, lineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
