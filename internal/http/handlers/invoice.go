package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

// InvoiceHandler serves both invoice tables: contractor-issued invoices
// and the property-manager invoices that go through the approval flow.
type InvoiceHandler struct {
	invoiceService services.InvoiceService
}

func NewInvoiceHandler(invoiceService services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// POST /api/invoices/contractor
func (ih *InvoiceHandler) IssueContractor(c *gin.Context) {
	var req services.IssueContractorInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	inv, err := ih.invoiceService.IssueContractorInvoice(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "issue_invoice_failed")
		return
	}
	response.RespondCreated(c, gin.H{"invoice": inv})
}

// POST /api/invoices/pm
func (ih *InvoiceHandler) IssuePM(c *gin.Context) {
	var req services.IssuePMInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	inv, err := ih.invoiceService.IssuePMInvoice(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "issue_invoice_failed")
		return
	}
	response.RespondCreated(c, gin.H{"invoice": inv})
}

// GET /api/invoices/contractor?status=SENT&contractor_id=...&limit=50
func (ih *InvoiceHandler) ListContractor(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	contractorID, ok := optionalUUIDQuery(c, "contractor_id")
	if !ok {
		return
	}
	invoices, err := ih.invoiceService.ListContractorInvoices(c.Request.Context(), status, contractorID, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_invoices_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoices": invoices})
}

// GET /api/invoices/pm?status=PENDING_APPROVAL&contractor_id=...&limit=50
func (ih *InvoiceHandler) ListPM(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	contractorID, ok := optionalUUIDQuery(c, "contractor_id")
	if !ok {
		return
	}
	invoices, err := ih.invoiceService.ListPMInvoices(c.Request.Context(), status, contractorID, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_invoices_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoices": invoices})
}

// GET /api/invoices/pm/pending?limit=50
func (ih *InvoiceHandler) ListPendingApproval(c *gin.Context) {
	invoices, err := ih.invoiceService.ListPendingApproval(c.Request.Context(), queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_invoices_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoices": invoices})
}

// GET /api/invoices/contractor/:id
func (ih *InvoiceHandler) GetContractor(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	inv, err := ih.invoiceService.GetContractorInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		response.RespondAPIError(c, err, "get_invoice_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoice": inv})
}

// GET /api/invoices/pm/:id
func (ih *InvoiceHandler) GetPM(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	inv, err := ih.invoiceService.GetPMInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		response.RespondAPIError(c, err, "get_invoice_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoice": inv})
}

// POST /api/invoices/contractor/:id/status
func (ih *InvoiceHandler) TransitionContractor(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	inv, err := ih.invoiceService.TransitionContractorInvoice(c.Request.Context(), invoiceID, req.Status)
	if err != nil {
		response.RespondAPIError(c, err, "transition_invoice_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoice": inv})
}

// POST /api/invoices/pm/:id/send
func (ih *InvoiceHandler) SendPM(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	inv, err := ih.invoiceService.SendPMInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		response.RespondAPIError(c, err, "send_invoice_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoice": inv})
}

// POST /api/invoices/pm/:id/decide
func (ih *InvoiceHandler) DecidePM(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	var req services.DecidePMInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	inv, err := ih.invoiceService.DecidePMInvoice(c.Request.Context(), invoiceID, req)
	if err != nil {
		response.RespondAPIError(c, err, "decide_invoice_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoice": inv})
}

// POST /api/invoices/pm/:id/mark-paid
func (ih *InvoiceHandler) MarkPMPaid(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	inv, err := ih.invoiceService.MarkPMInvoicePaid(c.Request.Context(), invoiceID)
	if err != nil {
		response.RespondAPIError(c, err, "mark_paid_failed")
		return
	}
	response.RespondOK(c, gin.H{"invoice": inv})
}
