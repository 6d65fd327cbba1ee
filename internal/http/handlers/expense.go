package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type ExpenseHandler struct {
	expenseService services.ExpenseService
}

func NewExpenseHandler(expenseService services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// POST /api/expenses/presign-slip
//
// The client PUTs the receipt to the returned URL, then creates the
// expense with the bucket key.
func (eh *ExpenseHandler) PresignSlipUpload(c *gin.Context) {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ticket, err := eh.expenseService.PresignSlipUpload(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		response.RespondAPIError(c, err, "presign_slip_failed")
		return
	}
	response.RespondOK(c, ticket)
}

// POST /api/expenses
func (eh *ExpenseHandler) Create(c *gin.Context) {
	var req services.CreateExpenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := eh.expenseService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_expense_failed")
		return
	}
	response.RespondCreated(c, gin.H{
		"expense_id":           res.ExpenseID,
		"project_id":           res.ProjectID,
		"project_budget_spent": res.ProjectBudgetSpent,
		"recorded_at":          res.RecordedAt,
	})
}

// GET /api/projects/:id/expenses?category=MATERIAL&limit=50
func (eh *ExpenseHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	category := strings.TrimSpace(c.Query("category"))
	expenses, err := eh.expenseService.List(c.Request.Context(), projectID, category, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_expenses_failed")
		return
	}
	response.RespondOK(c, gin.H{"expenses": expenses})
}

// GET /api/expenses/:id/slip-url
func (eh *ExpenseHandler) SlipDownloadURL(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_expense_id", err)
		return
	}
	url, err := eh.expenseService.SlipDownloadURL(c.Request.Context(), expenseID)
	if err != nil {
		response.RespondAPIError(c, err, "slip_url_failed")
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}
