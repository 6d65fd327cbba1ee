package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// GET /api/subscription
func (sh *SubscriptionHandler) Get(c *gin.Context) {
	view, err := sh.subscriptionService.Get(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "get_subscription_failed")
		return
	}
	response.RespondOK(c, view)
}

// POST /api/subscription/plan
func (sh *SubscriptionHandler) ChangePlan(c *gin.Context) {
	var req struct {
		PlanCode string `json:"plan_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := sh.subscriptionService.ChangePlan(c.Request.Context(), req.PlanCode)
	if err != nil {
		response.RespondAPIError(c, err, "change_plan_failed")
		return
	}
	response.RespondOK(c, view)
}

// POST /api/subscription/cancel
func (sh *SubscriptionHandler) Cancel(c *gin.Context) {
	view, err := sh.subscriptionService.CancelAtPeriodEnd(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "cancel_subscription_failed")
		return
	}
	response.RespondOK(c, view)
}

// POST /api/subscription/resume
func (sh *SubscriptionHandler) Resume(c *gin.Context) {
	view, err := sh.subscriptionService.Resume(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "resume_subscription_failed")
		return
	}
	response.RespondOK(c, view)
}
