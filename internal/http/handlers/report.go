package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// POST /api/projects/:id/report
func (rh *ReportHandler) GenerateProjectReport(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	doc, err := rh.reportService.GenerateProjectReport(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAPIError(c, err, "generate_report_failed")
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// POST /api/rfqs/:id/pdf
func (rh *ReportHandler) GenerateRFQPDF(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}
	doc, err := rh.reportService.GenerateRFQPDF(c.Request.Context(), rfqID)
	if err != nil {
		response.RespondAPIError(c, err, "generate_pdf_failed")
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// POST /api/invoices/contractor/:id/pdf
func (rh *ReportHandler) GenerateContractorInvoicePDF(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	doc, err := rh.reportService.GenerateContractorInvoicePDF(c.Request.Context(), invoiceID)
	if err != nil {
		response.RespondAPIError(c, err, "generate_pdf_failed")
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// POST /api/invoices/pm/:id/pdf
func (rh *ReportHandler) GeneratePMInvoicePDF(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_invoice_id", err)
		return
	}
	doc, err := rh.reportService.GeneratePMInvoicePDF(c.Request.Context(), invoiceID)
	if err != nil {
		response.RespondAPIError(c, err, "generate_pdf_failed")
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// GET /api/documents?kind=PROJECT_REPORT&limit=50
func (rh *ReportHandler) ListDocuments(c *gin.Context) {
	kind := strings.TrimSpace(c.Query("kind"))
	documents, err := rh.reportService.ListDocuments(c.Request.Context(), kind, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_documents_failed")
		return
	}
	response.RespondOK(c, gin.H{"documents": documents})
}

// GET /api/documents/by-entity/:id
func (rh *ReportHandler) ListByEntity(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	documents, err := rh.reportService.ListByEntity(c.Request.Context(), entityID)
	if err != nil {
		response.RespondAPIError(c, err, "list_documents_failed")
		return
	}
	response.RespondOK(c, gin.H{"documents": documents})
}

// GET /api/documents/:id/url
func (rh *ReportHandler) DownloadURL(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	url, err := rh.reportService.DownloadURL(c.Request.Context(), documentID)
	if err != nil {
		response.RespondAPIError(c, err, "document_url_failed")
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}
