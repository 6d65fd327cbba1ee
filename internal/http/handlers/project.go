package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type ProjectHandler struct {
	projectService services.ProjectService
	rollupService  services.RollupService
}

func NewProjectHandler(projectService services.ProjectService, rollupService services.RollupService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, rollupService: rollupService}
}

// POST /api/projects
func (ph *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	project, err := ph.projectService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_project_failed")
		return
	}
	response.RespondCreated(c, gin.H{"project": project})
}

// GET /api/projects?status=ACTIVE&limit=50
func (ph *ProjectHandler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	projects, err := ph.projectService.List(c.Request.Context(), status, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_projects_failed")
		return
	}
	response.RespondOK(c, gin.H{"projects": projects})
}

// GET /api/projects/:id
func (ph *ProjectHandler) Get(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	project, err := ph.projectService.Get(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAPIError(c, err, "get_project_failed")
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

// PATCH /api/projects/:id
func (ph *ProjectHandler) Update(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req services.UpdateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	project, err := ph.projectService.Update(c.Request.Context(), projectID, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_project_failed")
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

// POST /api/projects/:id/archive
func (ph *ProjectHandler) Archive(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	if err := ph.projectService.Archive(c.Request.Context(), projectID); err != nil {
		response.RespondAPIError(c, err, "archive_project_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/projects/:id/financials
//
// Figures are recomputed from source rows on every call, never read
// from the cached columns.
func (ph *ProjectHandler) Financials(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	fin, err := ph.rollupService.ProjectFinancials(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAPIError(c, err, "project_financials_failed")
		return
	}
	response.RespondOK(c, gin.H{"financials": fin})
}
