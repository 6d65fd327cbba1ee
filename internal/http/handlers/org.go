package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type OrgHandler struct {
	orgService services.OrganizationService
}

func NewOrgHandler(orgService services.OrganizationService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

// GET /api/org
func (oh *OrgHandler) Get(c *gin.Context) {
	org, err := oh.orgService.Get(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "get_org_failed")
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// PATCH /api/org
func (oh *OrgHandler) Update(c *gin.Context) {
	var req services.UpdateOrgInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	org, err := oh.orgService.Update(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "update_org_failed")
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// POST /api/org/logo (multipart/form-data, field "file")
func (oh *OrgHandler) UploadLogo(c *gin.Context) {
	raw, ok := readUploadFile(c)
	if !ok {
		return
	}
	org, err := oh.orgService.UploadLogo(c.Request.Context(), raw)
	if err != nil {
		response.RespondAPIError(c, err, "upload_logo_failed")
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// GET /api/org/members?role=CONTRACTOR&limit=100
func (oh *OrgHandler) Members(c *gin.Context) {
	role := strings.TrimSpace(c.Query("role"))
	members, err := oh.orgService.Members(c.Request.Context(), role, queryLimit(c, 100))
	if err != nil {
		response.RespondAPIError(c, err, "list_members_failed")
		return
	}
	response.RespondOK(c, gin.H{"members": members})
}
