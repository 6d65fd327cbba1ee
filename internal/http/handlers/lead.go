package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type LeadHandler struct {
	leadService services.LeadService
}

func NewLeadHandler(leadService services.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// POST /api/leads
func (lh *LeadHandler) Create(c *gin.Context) {
	var req services.CreateLeadInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lead, err := lh.leadService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_lead_failed")
		return
	}
	response.RespondCreated(c, gin.H{"lead": lead})
}

// GET /api/leads?status=NEW&limit=50
func (lh *LeadHandler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	leads, err := lh.leadService.List(c.Request.Context(), status, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_leads_failed")
		return
	}
	response.RespondOK(c, gin.H{"leads": leads})
}

// GET /api/leads/:id
func (lh *LeadHandler) Get(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lead_id", err)
		return
	}
	lead, err := lh.leadService.Get(c.Request.Context(), leadID)
	if err != nil {
		response.RespondAPIError(c, err, "get_lead_failed")
		return
	}
	response.RespondOK(c, gin.H{"lead": lead})
}

// PATCH /api/leads/:id
func (lh *LeadHandler) Update(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lead_id", err)
		return
	}
	var req services.UpdateLeadInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lead, err := lh.leadService.Update(c.Request.Context(), leadID, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_lead_failed")
		return
	}
	response.RespondOK(c, gin.H{"lead": lead})
}

// DELETE /api/leads/:id
func (lh *LeadHandler) Delete(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lead_id", err)
		return
	}
	if err := lh.leadService.Delete(c.Request.Context(), leadID); err != nil {
		response.RespondAPIError(c, err, "delete_lead_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/leads/:id/convert
func (lh *LeadHandler) ConvertToRFQ(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lead_id", err)
		return
	}
	var req services.ConvertLeadInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := lh.leadService.ConvertToRFQ(c.Request.Context(), leadID, req)
	if err != nil {
		response.RespondAPIError(c, err, "convert_lead_failed")
		return
	}
	response.RespondCreated(c, gin.H{
		"lead_id":      res.LeadID,
		"rfq_id":       res.RFQID,
		"converted_at": res.ConvertedAt,
	})
}
