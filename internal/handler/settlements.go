package handler

import (
	"net/http"

	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

type SettlementsHandler struct{ svc service.SettlementService }

func NewSettlementsHandler(svc service.SettlementService) *SettlementsHandler {
	return &SettlementsHandler{svc: svc}
}

// Settle godoc
// @Summary      Facturar pedido
// @Description  Cobra los items pendientes del pedido. Un pago sin asignación genera una factura única;
// @Description  varios pagos, o un pago con line_ids / seat_positions, generan facturas divididas.
// @Description  La mesa se libera sólo cuando no queda ningún item pendiente.
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int                   true "ID del pedido"
// @Param        body body     dto.SettlementRequest true "Pagos"
// @Success      201  {object} dto.SettlementResponse
// @Failure      400  {object} apierror.APIError "INVALID_PAYMENT, PAYMENT_MISMATCH, NO_PENDING_ITEMS, TABLE_MISMATCH"
// @Failure      404  {object} apierror.APIError "ORDER_NOT_FOUND"
// @Failure      500  {object} apierror.APIError "PERSISTENCE_FAILURE"
// @Router       /v1/orders/{id}/settlements [post]
func (h *SettlementsHandler) Settle(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dto.SettlementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Settle(c.Request.Context(), middleware.ActorID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
