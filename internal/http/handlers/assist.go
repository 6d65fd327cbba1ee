package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

// AssistHandler fronts the AI helpers. Quota, provider and parse
// failures come back as typed errors with their own status codes
// (402/503/502), so everything funnels through RespondAPIError.
type AssistHandler struct {
	assistService services.AssistService
}

func NewAssistHandler(assistService services.AssistService) *AssistHandler {
	return &AssistHandler{assistService: assistService}
}

// POST /api/assist/draft-email
func (ah *AssistHandler) DraftEmail(c *gin.Context) {
	var req services.DraftEmailInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ah.assistService.DraftEmail(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "draft_email_failed")
		return
	}
	response.RespondOK(c, res)
}

// POST /api/projects/:id/analyze-risks
func (ah *AssistHandler) AnalyzeProjectRisks(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	res, err := ah.assistService.AnalyzeProjectRisks(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAPIError(c, err, "analyze_risks_failed")
		return
	}
	response.RespondOK(c, res)
}

// POST /api/assist/rank-artisans
func (ah *AssistHandler) RankArtisans(c *gin.Context) {
	var req services.RankArtisansInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ranked, err := ah.assistService.RankArtisans(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "rank_artisans_failed")
		return
	}
	response.RespondOK(c, gin.H{"ranked": ranked})
}

// GET /api/assist/history?kind=DRAFT_EMAIL&limit=50
func (ah *AssistHandler) History(c *gin.Context) {
	kind := strings.TrimSpace(c.Query("kind"))
	logs, err := ah.assistService.History(c.Request.Context(), kind, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "assist_history_failed")
		return
	}
	response.RespondOK(c, gin.H{"calls": logs})
}
