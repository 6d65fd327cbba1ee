package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type MilestoneHandler struct {
	milestoneService services.MilestoneService
}

func NewMilestoneHandler(milestoneService services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

// POST /api/milestones
func (mh *MilestoneHandler) Create(c *gin.Context) {
	var req services.CreateMilestoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	milestone, err := mh.milestoneService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_milestone_failed")
		return
	}
	response.RespondCreated(c, gin.H{"milestone": milestone})
}

// GET /api/projects/:id/milestones
func (mh *MilestoneHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	milestones, err := mh.milestoneService.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAPIError(c, err, "list_milestones_failed")
		return
	}
	response.RespondOK(c, gin.H{"milestones": milestones})
}

// GET /api/milestones/:id
func (mh *MilestoneHandler) Get(c *gin.Context) {
	milestoneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_milestone_id", err)
		return
	}
	milestone, err := mh.milestoneService.Get(c.Request.Context(), milestoneID)
	if err != nil {
		response.RespondAPIError(c, err, "get_milestone_failed")
		return
	}
	response.RespondOK(c, gin.H{"milestone": milestone})
}

// PATCH /api/milestones/:id
func (mh *MilestoneHandler) Update(c *gin.Context) {
	milestoneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_milestone_id", err)
		return
	}
	var req services.UpdateMilestoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	milestone, err := mh.milestoneService.Update(c.Request.Context(), milestoneID, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_milestone_failed")
		return
	}
	response.RespondOK(c, gin.H{"milestone": milestone})
}

// DELETE /api/milestones/:id
func (mh *MilestoneHandler) Delete(c *gin.Context) {
	milestoneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_milestone_id", err)
		return
	}
	if err := mh.milestoneService.Delete(c.Request.Context(), milestoneID); err != nil {
		response.RespondAPIError(c, err, "delete_milestone_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/milestones/:id/weekly-updates
func (mh *MilestoneHandler) CreateWeeklyUpdate(c *gin.Context) {
	milestoneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_milestone_id", err)
		return
	}
	var req services.WeeklyUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := mh.milestoneService.CreateWeeklyUpdate(c.Request.Context(), milestoneID, req)
	if err != nil {
		response.RespondAPIError(c, err, "create_weekly_update_failed")
		return
	}
	response.RespondCreated(c, gin.H{
		"update_id":             res.UpdateID,
		"milestone_id":          res.MilestoneID,
		"total_expenditure":     res.TotalExpenditure,
		"milestone_actual_cost": res.MilestoneActualCost,
		"recorded_at":           res.RecordedAt,
	})
}

// GET /api/milestones/:id/weekly-updates
func (mh *MilestoneHandler) ListWeeklyUpdates(c *gin.Context) {
	milestoneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_milestone_id", err)
		return
	}
	updates, err := mh.milestoneService.ListWeeklyUpdates(c.Request.Context(), milestoneID)
	if err != nil {
		response.RespondAPIError(c, err, "list_weekly_updates_failed")
		return
	}
	response.RespondOK(c, gin.H{"weekly_updates": updates})
}
