package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type QuotationHandler struct {
	quotationService services.QuotationService
}

func NewQuotationHandler(quotationService services.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

// POST /api/quotations
func (qh *QuotationHandler) Create(c *gin.Context) {
	var req services.CreateQuotationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	q, err := qh.quotationService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_quotation_failed")
		return
	}
	response.RespondCreated(c, gin.H{"quotation": q})
}

// GET /api/quotations?status=SUBMITTED&contractor_id=...&limit=50
func (qh *QuotationHandler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	contractorID, ok := optionalUUIDQuery(c, "contractor_id")
	if !ok {
		return
	}
	quotations, err := qh.quotationService.List(c.Request.Context(), status, contractorID, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_quotations_failed")
		return
	}
	response.RespondOK(c, gin.H{"quotations": quotations})
}

// GET /api/quotations/:id
func (qh *QuotationHandler) Get(c *gin.Context) {
	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_quotation_id", err)
		return
	}
	q, err := qh.quotationService.Get(c.Request.Context(), quotationID)
	if err != nil {
		response.RespondAPIError(c, err, "get_quotation_failed")
		return
	}
	response.RespondOK(c, gin.H{"quotation": q})
}

// PATCH /api/quotations/:id
func (qh *QuotationHandler) Update(c *gin.Context) {
	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_quotation_id", err)
		return
	}
	var req services.UpdateQuotationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	q, err := qh.quotationService.Update(c.Request.Context(), quotationID, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_quotation_failed")
		return
	}
	response.RespondOK(c, gin.H{"quotation": q})
}

// POST /api/quotations/:id/submit
func (qh *QuotationHandler) Submit(c *gin.Context) {
	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_quotation_id", err)
		return
	}
	q, err := qh.quotationService.Submit(c.Request.Context(), quotationID)
	if err != nil {
		response.RespondAPIError(c, err, "submit_quotation_failed")
		return
	}
	response.RespondOK(c, gin.H{"quotation": q})
}

// POST /api/quotations/:id/withdraw
func (qh *QuotationHandler) Withdraw(c *gin.Context) {
	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_quotation_id", err)
		return
	}
	q, err := qh.quotationService.Withdraw(c.Request.Context(), quotationID)
	if err != nil {
		response.RespondAPIError(c, err, "withdraw_quotation_failed")
		return
	}
	response.RespondOK(c, gin.H{"quotation": q})
}

// POST /api/quotations/:id/accept
//
// Accepting one quotation auto-rejects its submitted siblings on the
// same RFQ inside one transaction.
func (qh *QuotationHandler) Accept(c *gin.Context) {
	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_quotation_id", err)
		return
	}
	res, err := qh.quotationService.Accept(c.Request.Context(), quotationID)
	if err != nil {
		response.RespondAPIError(c, err, "accept_quotation_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"quotation_id":      res.QuotationID,
		"rfq_id":            res.RFQID,
		"rejected_siblings": res.RejectedSiblings,
		"accepted_at":       res.AcceptedAt,
	})
}
