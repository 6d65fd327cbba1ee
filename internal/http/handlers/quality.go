package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type QualityHandler struct {
	qualityService services.QualityService
}

func NewQualityHandler(qualityService services.QualityService) *QualityHandler {
	return &QualityHandler{qualityService: qualityService}
}

// POST /api/quality-checkpoints
func (qh *QualityHandler) Create(c *gin.Context) {
	var req services.CreateCheckpointInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cp, err := qh.qualityService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_checkpoint_failed")
		return
	}
	response.RespondCreated(c, gin.H{"checkpoint": cp})
}

// GET /api/projects/:id/quality-checkpoints?status=PENDING
func (qh *QualityHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	status := strings.TrimSpace(c.Query("status"))
	checkpoints, err := qh.qualityService.List(c.Request.Context(), projectID, status)
	if err != nil {
		response.RespondAPIError(c, err, "list_checkpoints_failed")
		return
	}
	response.RespondOK(c, gin.H{"checkpoints": checkpoints})
}

// POST /api/quality-checkpoints/:id/inspect
func (qh *QualityHandler) Inspect(c *gin.Context) {
	checkpointID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_checkpoint_id", err)
		return
	}
	var req services.InspectCheckpointInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cp, err := qh.qualityService.Inspect(c.Request.Context(), checkpointID, req)
	if err != nil {
		response.RespondAPIError(c, err, "inspect_checkpoint_failed")
		return
	}
	response.RespondOK(c, gin.H{"checkpoint": cp})
}
