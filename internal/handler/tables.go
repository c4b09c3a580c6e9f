package handler

import (
	"net/http"

	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

type TablesHandler struct{ svc service.TableService }

func NewTablesHandler(svc service.TableService) *TablesHandler { return &TablesHandler{svc: svc} }

// OccupiedWithPending godoc
// @Summary      Mesas ocupadas con pendiente
// @Description  Mesas ocupadas con pedido abierto y el monto que aún se puede cobrar.
// @Tags         mesas
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  dto.OccupiedTableResponse
// @Router       /v1/tables/occupied-with-pending [get]
func (h *TablesHandler) OccupiedWithPending(c *gin.Context) {
	rows, err := h.svc.ListOccupiedWithPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
