package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type ChangeOrderHandler struct {
	changeOrderService services.ChangeOrderService
}

func NewChangeOrderHandler(changeOrderService services.ChangeOrderService) *ChangeOrderHandler {
	return &ChangeOrderHandler{changeOrderService: changeOrderService}
}

// POST /api/change-orders
func (ch *ChangeOrderHandler) Propose(c *gin.Context) {
	var req services.ProposeChangeOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	co, err := ch.changeOrderService.Propose(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "propose_change_order_failed")
		return
	}
	response.RespondCreated(c, gin.H{"change_order": co})
}

// GET /api/projects/:id/change-orders?status=PROPOSED
func (ch *ChangeOrderHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	status := strings.TrimSpace(c.Query("status"))
	changeOrders, err := ch.changeOrderService.List(c.Request.Context(), projectID, status)
	if err != nil {
		response.RespondAPIError(c, err, "list_change_orders_failed")
		return
	}
	response.RespondOK(c, gin.H{"change_orders": changeOrders})
}

// POST /api/change-orders/:id/decide
//
// Approval moves the project's budget_total by the proposed delta in the
// same transaction that flips the status.
func (ch *ChangeOrderHandler) Decide(c *gin.Context) {
	changeOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_change_order_id", err)
		return
	}
	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ch.changeOrderService.Decide(c.Request.Context(), changeOrderID, req.Approve)
	if err != nil {
		response.RespondAPIError(c, err, "decide_change_order_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"change_order_id":      res.ChangeOrderID,
		"project_id":           res.ProjectID,
		"status":               res.Status,
		"project_budget_total": res.ProjectBudgetTotal,
		"decided_at":           res.DecidedAt,
	})
}
