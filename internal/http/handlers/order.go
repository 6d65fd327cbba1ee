package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// POST /api/orders
func (oh *OrderHandler) Create(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	order, err := oh.orderService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_order_failed")
		return
	}
	response.RespondCreated(c, gin.H{"order": order})
}

// POST /api/rfqs/:id/convert
func (oh *OrderHandler) ConvertRFQ(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}
	var req services.ConvertRFQInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	order, err := oh.orderService.ConvertRFQ(c.Request.Context(), rfqID, req)
	if err != nil {
		response.RespondAPIError(c, err, "convert_rfq_failed")
		return
	}
	response.RespondCreated(c, gin.H{"order": order})
}

// GET /api/orders?status=IN_PROGRESS&contractor_id=...&limit=50
func (oh *OrderHandler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	contractorID, ok := optionalUUIDQuery(c, "contractor_id")
	if !ok {
		return
	}
	orders, err := oh.orderService.List(c.Request.Context(), status, contractorID, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_orders_failed")
		return
	}
	response.RespondOK(c, gin.H{"orders": orders})
}

// GET /api/orders/:id
func (oh *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_order_id", err)
		return
	}
	order, err := oh.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		response.RespondAPIError(c, err, "get_order_failed")
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

// POST /api/orders/:id/status
func (oh *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_order_id", err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	order, err := oh.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		response.RespondAPIError(c, err, "update_order_status_failed")
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}
