package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// POST /api/payments
func (ph *PaymentHandler) CreateRequest(c *gin.Context) {
	var req services.CreatePaymentRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pr, err := ph.paymentService.CreateRequest(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_payment_request_failed")
		return
	}
	response.RespondCreated(c, gin.H{"payment_request": pr})
}

// GET /api/payments?status=PENDING&artisan_id=...&limit=50
func (ph *PaymentHandler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	artisanID, ok := optionalUUIDQuery(c, "artisan_id")
	if !ok {
		return
	}
	requests, err := ph.paymentService.List(c.Request.Context(), status, artisanID, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_payment_requests_failed")
		return
	}
	response.RespondOK(c, gin.H{"payment_requests": requests})
}

// GET /api/projects/:id/payments?status=APPROVED
func (ph *PaymentHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	status := strings.TrimSpace(c.Query("status"))
	requests, err := ph.paymentService.ListByProject(c.Request.Context(), projectID, status)
	if err != nil {
		response.RespondAPIError(c, err, "list_payment_requests_failed")
		return
	}
	response.RespondOK(c, gin.H{"payment_requests": requests})
}

// GET /api/payments/:id
func (ph *PaymentHandler) Get(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payment_request_id", err)
		return
	}
	pr, err := ph.paymentService.Get(c.Request.Context(), requestID)
	if err != nil {
		response.RespondAPIError(c, err, "get_payment_request_failed")
		return
	}
	response.RespondOK(c, gin.H{"payment_request": pr})
}

// POST /api/payments/:id/decide
func (ph *PaymentHandler) Decide(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payment_request_id", err)
		return
	}
	var req struct {
		Approve      bool   `json:"approve"`
		RejectReason string `json:"reject_reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pr, err := ph.paymentService.Decide(c.Request.Context(), requestID, req.Approve, req.RejectReason)
	if err != nil {
		response.RespondAPIError(c, err, "decide_payment_request_failed")
		return
	}
	response.RespondOK(c, gin.H{"payment_request": pr})
}

// POST /api/payments/:id/mark-paid
//
// Paying an approved request also cuts the payslip; the response carries
// the payslip identifiers so the client can fetch the PDF.
func (ph *PaymentHandler) MarkPaid(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payment_request_id", err)
		return
	}
	var req services.MarkPaidInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ph.paymentService.MarkPaid(c.Request.Context(), requestID, req)
	if err != nil {
		response.RespondAPIError(c, err, "mark_paid_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"payment_request_id": res.PaymentRequestID,
		"payslip_id":         res.PayslipID,
		"reference":          res.Reference,
		"gross":              res.Gross,
		"deductions":         res.Deductions,
		"net":                res.Net,
		"paid_at":            res.PaidAt,
	})
}

// GET /api/payslips?artisan_id=...&limit=50
func (ph *PaymentHandler) ListPayslips(c *gin.Context) {
	artisanID, ok := optionalUUIDQuery(c, "artisan_id")
	if !ok {
		return
	}
	payslips, err := ph.paymentService.ListPayslips(c.Request.Context(), artisanID, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_payslips_failed")
		return
	}
	response.RespondOK(c, gin.H{"payslips": payslips})
}

// GET /api/payslips/:id/url
func (ph *PaymentHandler) PayslipDownloadURL(c *gin.Context) {
	payslipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payslip_id", err)
		return
	}
	url, err := ph.paymentService.PayslipDownloadURL(c.Request.Context(), payslipID)
	if err != nil {
		response.RespondAPIError(c, err, "payslip_url_failed")
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}
