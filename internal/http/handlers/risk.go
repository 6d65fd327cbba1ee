package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type RiskHandler struct {
	riskService services.RiskService
}

func NewRiskHandler(riskService services.RiskService) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

// POST /api/risks
func (rh *RiskHandler) Create(c *gin.Context) {
	var req services.CreateRiskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	risk, err := rh.riskService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_risk_failed")
		return
	}
	response.RespondCreated(c, gin.H{"risk": risk})
}

// GET /api/projects/:id/risks?status=OPEN
func (rh *RiskHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	status := strings.TrimSpace(c.Query("status"))
	risks, err := rh.riskService.List(c.Request.Context(), projectID, status)
	if err != nil {
		response.RespondAPIError(c, err, "list_risks_failed")
		return
	}
	response.RespondOK(c, gin.H{"risks": risks})
}

// PATCH /api/risks/:id
func (rh *RiskHandler) Update(c *gin.Context) {
	riskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_risk_id", err)
		return
	}
	var req services.UpdateRiskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	risk, err := rh.riskService.Update(c.Request.Context(), riskID, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_risk_failed")
		return
	}
	response.RespondOK(c, gin.H{"risk": risk})
}

// POST /api/risks/:id/close
func (rh *RiskHandler) Close(c *gin.Context) {
	riskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_risk_id", err)
		return
	}
	risk, err := rh.riskService.Close(c.Request.Context(), riskID)
	if err != nil {
		response.RespondAPIError(c, err, "close_risk_failed")
		return
	}
	response.RespondOK(c, gin.H{"risk": risk})
}
