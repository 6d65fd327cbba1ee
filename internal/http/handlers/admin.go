package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

// AdminHandler groups the ops endpoints. Everything here sits behind
// RequireRoles(ADMIN); the cron jobs call the same service methods, so
// these endpoints double as a manual trigger.
type AdminHandler struct {
	emailService        services.EmailService
	subscriptionService services.SubscriptionService
	reportService       services.ReportService
	rollupService       services.RollupService
}

func NewAdminHandler(
	emailService services.EmailService,
	subscriptionService services.SubscriptionService,
	reportService services.ReportService,
	rollupService services.RollupService,
) *AdminHandler {
	return &AdminHandler{
		emailService:        emailService,
		subscriptionService: subscriptionService,
		reportService:       reportService,
		rollupService:       rollupService,
	}
}

// POST /api/admin/test-email
func (ah *AdminHandler) SendTestEmail(c *gin.Context) {
	var req struct {
		To string `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ah.emailService.SendTestEmail(c.Request.Context(), req.To); err != nil {
		response.RespondAPIError(c, err, "test_email_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/admin/billing/sweep
func (ah *AdminHandler) RunRenewalSweep(c *gin.Context) {
	var req struct {
		AsOf  *time.Time `json:"as_of,omitempty"`
		Limit int        `json:"limit,omitempty"`
	}
	// Body is optional; an empty sweep means "now, default batch".
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	res, err := ah.subscriptionService.RunRenewalSweep(c.Request.Context(), asOf, req.Limit)
	if err != nil {
		response.RespondAPIError(c, err, "renewal_sweep_failed")
		return
	}
	response.RespondOK(c, res)
}

// POST /api/admin/reports/weekly-digest
func (ah *AdminHandler) RunWeeklyDigest(c *gin.Context) {
	res, err := ah.reportService.RunWeeklyDigest(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "weekly_digest_failed")
		return
	}
	response.RespondOK(c, res)
}

// POST /api/admin/rollups/audit
func (ah *AdminHandler) AuditRollups(c *gin.Context) {
	var req struct {
		Limit int `json:"limit,omitempty"`
	}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	res, err := ah.rollupService.AuditRollups(c.Request.Context(), req.Limit)
	if err != nil {
		response.RespondAPIError(c, err, "rollup_audit_failed")
		return
	}
	response.RespondOK(c, res)
}
