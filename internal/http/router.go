package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/propflow/propflow-backend/internal/domain"
	httpH "github.com/propflow/propflow-backend/internal/http/handlers"
	httpMW "github.com/propflow/propflow-backend/internal/http/middleware"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	RateLimiter *httpMW.RateLimiter

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	OrgHandler          *httpH.OrgHandler
	LeadHandler         *httpH.LeadHandler
	RFQHandler          *httpH.RFQHandler
	QuotationHandler    *httpH.QuotationHandler
	OrderHandler        *httpH.OrderHandler
	ProjectHandler      *httpH.ProjectHandler
	MilestoneHandler    *httpH.MilestoneHandler
	ChangeOrderHandler  *httpH.ChangeOrderHandler
	RiskHandler         *httpH.RiskHandler
	QualityHandler      *httpH.QualityHandler
	ExpenseHandler      *httpH.ExpenseHandler
	InvoiceHandler      *httpH.InvoiceHandler
	PaymentHandler      *httpH.PaymentHandler
	ChatHandler         *httpH.ChatHandler
	NotificationHandler *httpH.NotificationHandler
	RealtimeHandler     *httpH.RealtimeHandler
	SubscriptionHandler *httpH.SubscriptionHandler
	ArtisanHandler      *httpH.ArtisanHandler
	AssistHandler       *httpH.AssistHandler
	ReportHandler       *httpH.ReportHandler
	AdminHandler        *httpH.AdminHandler
}

// NewRouter builds the gin engine with the full middleware chain and
// every route. Handlers are nil-guarded so partial wiring (tests,
// worker-only deployments) stays possible.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.CORS())
	r.Use(otelgin.Middleware("propflow-backend"))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Handler())
	}

	// Auth (public). Refresh is public: the refresh token in the body is
	// the credential.
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.AuthHandler != nil {
		protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	}

	if cfg.RealtimeHandler != nil {
		protected.GET("/realtime/stream", cfg.RealtimeHandler.Stream)
		protected.POST("/realtime/subscribe", cfg.RealtimeHandler.Subscribe)
		protected.POST("/realtime/unsubscribe", cfg.RealtimeHandler.Unsubscribe)
	}

	if cfg.UserHandler != nil {
		protected.GET("/users/me", cfg.UserHandler.Me)
		protected.PATCH("/users/me", cfg.UserHandler.UpdateProfile)
		protected.PATCH("/users/me/password", cfg.UserHandler.UpdatePassword)
		protected.POST("/users/me/avatar", cfg.UserHandler.UploadAvatar)
		protected.POST("/users", cfg.UserHandler.Create)
		protected.GET("/users", cfg.UserHandler.List)
		protected.GET("/users/:id", cfg.UserHandler.Get)
		protected.PATCH("/users/:id/role", cfg.UserHandler.UpdateRole)
		protected.DELETE("/users/:id", cfg.UserHandler.Deactivate)
	}
	if cfg.ArtisanHandler != nil {
		protected.GET("/users/:id/artisan-profile", cfg.ArtisanHandler.GetByUser)
	}

	if cfg.OrgHandler != nil {
		protected.GET("/org", cfg.OrgHandler.Get)
		protected.PATCH("/org", cfg.OrgHandler.Update)
		protected.POST("/org/logo", cfg.OrgHandler.UploadLogo)
		protected.GET("/org/members", cfg.OrgHandler.Members)
	}

	if cfg.LeadHandler != nil {
		protected.POST("/leads", cfg.LeadHandler.Create)
		protected.GET("/leads", cfg.LeadHandler.List)
		protected.GET("/leads/:id", cfg.LeadHandler.Get)
		protected.PATCH("/leads/:id", cfg.LeadHandler.Update)
		protected.DELETE("/leads/:id", cfg.LeadHandler.Delete)
		protected.POST("/leads/:id/convert", cfg.LeadHandler.ConvertToRFQ)
	}

	if cfg.RFQHandler != nil {
		protected.POST("/rfqs", cfg.RFQHandler.Create)
		protected.GET("/rfqs", cfg.RFQHandler.List)
		protected.GET("/rfqs/:id", cfg.RFQHandler.Get)
		protected.POST("/rfqs/:id/close", cfg.RFQHandler.Close)
		protected.POST("/rfqs/:id/send", cfg.RFQHandler.SendToContractors)
	}
	if cfg.OrderHandler != nil {
		protected.POST("/rfqs/:id/convert", cfg.OrderHandler.ConvertRFQ)
	}

	if cfg.QuotationHandler != nil {
		protected.POST("/quotations", cfg.QuotationHandler.Create)
		protected.GET("/quotations", cfg.QuotationHandler.List)
		protected.GET("/quotations/:id", cfg.QuotationHandler.Get)
		protected.PATCH("/quotations/:id", cfg.QuotationHandler.Update)
		protected.POST("/quotations/:id/submit", cfg.QuotationHandler.Submit)
		protected.POST("/quotations/:id/withdraw", cfg.QuotationHandler.Withdraw)
		protected.POST("/quotations/:id/accept", cfg.QuotationHandler.Accept)
	}

	if cfg.OrderHandler != nil {
		protected.POST("/orders", cfg.OrderHandler.Create)
		protected.GET("/orders", cfg.OrderHandler.List)
		protected.GET("/orders/:id", cfg.OrderHandler.Get)
		protected.POST("/orders/:id/status", cfg.OrderHandler.UpdateStatus)
	}

	if cfg.ProjectHandler != nil {
		protected.POST("/projects", cfg.ProjectHandler.Create)
		protected.GET("/projects", cfg.ProjectHandler.List)
		protected.GET("/projects/:id", cfg.ProjectHandler.Get)
		protected.PATCH("/projects/:id", cfg.ProjectHandler.Update)
		protected.POST("/projects/:id/archive", cfg.ProjectHandler.Archive)
		protected.GET("/projects/:id/financials", cfg.ProjectHandler.Financials)
	}

	if cfg.MilestoneHandler != nil {
		protected.POST("/milestones", cfg.MilestoneHandler.Create)
		protected.GET("/milestones/:id", cfg.MilestoneHandler.Get)
		protected.PATCH("/milestones/:id", cfg.MilestoneHandler.Update)
		protected.DELETE("/milestones/:id", cfg.MilestoneHandler.Delete)
		protected.POST("/milestones/:id/weekly-updates", cfg.MilestoneHandler.CreateWeeklyUpdate)
		protected.GET("/milestones/:id/weekly-updates", cfg.MilestoneHandler.ListWeeklyUpdates)
		protected.GET("/projects/:id/milestones", cfg.MilestoneHandler.ListByProject)
	}

	if cfg.ChangeOrderHandler != nil {
		protected.POST("/change-orders", cfg.ChangeOrderHandler.Propose)
		protected.POST("/change-orders/:id/decide", cfg.ChangeOrderHandler.Decide)
		protected.GET("/projects/:id/change-orders", cfg.ChangeOrderHandler.ListByProject)
	}

	if cfg.RiskHandler != nil {
		protected.POST("/risks", cfg.RiskHandler.Create)
		protected.PATCH("/risks/:id", cfg.RiskHandler.Update)
		protected.POST("/risks/:id/close", cfg.RiskHandler.Close)
		protected.GET("/projects/:id/risks", cfg.RiskHandler.ListByProject)
	}

	if cfg.QualityHandler != nil {
		protected.POST("/quality-checkpoints", cfg.QualityHandler.Create)
		protected.POST("/quality-checkpoints/:id/inspect", cfg.QualityHandler.Inspect)
		protected.GET("/projects/:id/quality-checkpoints", cfg.QualityHandler.ListByProject)
	}

	if cfg.ExpenseHandler != nil {
		protected.POST("/expenses/presign-slip", cfg.ExpenseHandler.PresignSlipUpload)
		protected.POST("/expenses", cfg.ExpenseHandler.Create)
		protected.GET("/expenses/:id/slip-url", cfg.ExpenseHandler.SlipDownloadURL)
		protected.GET("/projects/:id/expenses", cfg.ExpenseHandler.ListByProject)
	}

	if cfg.InvoiceHandler != nil {
		protected.POST("/invoices/contractor", cfg.InvoiceHandler.IssueContractor)
		protected.POST("/invoices/pm", cfg.InvoiceHandler.IssuePM)
		protected.GET("/invoices/contractor", cfg.InvoiceHandler.ListContractor)
		protected.GET("/invoices/pm", cfg.InvoiceHandler.ListPM)
		protected.GET("/invoices/pm/pending", cfg.InvoiceHandler.ListPendingApproval)
		protected.GET("/invoices/contractor/:id", cfg.InvoiceHandler.GetContractor)
		protected.GET("/invoices/pm/:id", cfg.InvoiceHandler.GetPM)
		protected.POST("/invoices/contractor/:id/status", cfg.InvoiceHandler.TransitionContractor)
		protected.POST("/invoices/pm/:id/send", cfg.InvoiceHandler.SendPM)
		protected.POST("/invoices/pm/:id/decide", cfg.InvoiceHandler.DecidePM)
		protected.POST("/invoices/pm/:id/mark-paid", cfg.InvoiceHandler.MarkPMPaid)
	}
	if cfg.ReportHandler != nil {
		protected.POST("/invoices/contractor/:id/pdf", cfg.ReportHandler.GenerateContractorInvoicePDF)
		protected.POST("/invoices/pm/:id/pdf", cfg.ReportHandler.GeneratePMInvoicePDF)
		protected.POST("/rfqs/:id/pdf", cfg.ReportHandler.GenerateRFQPDF)
		protected.POST("/projects/:id/report", cfg.ReportHandler.GenerateProjectReport)
		protected.GET("/documents", cfg.ReportHandler.ListDocuments)
		protected.GET("/documents/by-entity/:id", cfg.ReportHandler.ListByEntity)
		protected.GET("/documents/:id/url", cfg.ReportHandler.DownloadURL)
	}

	if cfg.PaymentHandler != nil {
		protected.POST("/payments", cfg.PaymentHandler.CreateRequest)
		protected.GET("/payments", cfg.PaymentHandler.List)
		protected.GET("/payments/:id", cfg.PaymentHandler.Get)
		protected.POST("/payments/:id/decide", cfg.PaymentHandler.Decide)
		protected.POST("/payments/:id/mark-paid", cfg.PaymentHandler.MarkPaid)
		protected.GET("/payslips", cfg.PaymentHandler.ListPayslips)
		protected.GET("/payslips/:id/url", cfg.PaymentHandler.PayslipDownloadURL)
		protected.GET("/projects/:id/payments", cfg.PaymentHandler.ListByProject)
	}

	if cfg.ChatHandler != nil {
		protected.POST("/chat/conversations", cfg.ChatHandler.CreateConversation)
		protected.GET("/chat/conversations", cfg.ChatHandler.ListConversations)
		protected.POST("/chat/conversations/:id/messages", cfg.ChatHandler.SendMessage)
		protected.GET("/chat/conversations/:id/messages", cfg.ChatHandler.ListMessages)
		protected.POST("/chat/conversations/:id/read", cfg.ChatHandler.MarkRead)
		protected.POST("/chat/conversations/:id/leave", cfg.ChatHandler.LeaveConversation)
		protected.POST("/chat/attachments/presign", cfg.ChatHandler.PresignAttachment)
		protected.GET("/chat/messages/:id/attachment-url", cfg.ChatHandler.AttachmentDownloadURL)
	}

	if cfg.NotificationHandler != nil {
		protected.GET("/notifications", cfg.NotificationHandler.List)
		protected.GET("/notifications/unread-count", cfg.NotificationHandler.UnreadCount)
		protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		protected.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
	}

	if cfg.SubscriptionHandler != nil {
		protected.GET("/subscription", cfg.SubscriptionHandler.Get)
		protected.POST("/subscription/plan", cfg.SubscriptionHandler.ChangePlan)
		protected.POST("/subscription/cancel", cfg.SubscriptionHandler.Cancel)
		protected.POST("/subscription/resume", cfg.SubscriptionHandler.Resume)
	}

	if cfg.ArtisanHandler != nil {
		protected.PUT("/artisans", cfg.ArtisanHandler.Upsert)
		protected.GET("/artisans", cfg.ArtisanHandler.List)
		protected.GET("/artisans/:id", cfg.ArtisanHandler.Get)
		protected.POST("/artisans/:id/rate", cfg.ArtisanHandler.Rate)
		protected.DELETE("/artisans/:id", cfg.ArtisanHandler.Delete)
	}

	if cfg.AssistHandler != nil {
		protected.POST("/assist/draft-email", cfg.AssistHandler.DraftEmail)
		protected.POST("/assist/rank-artisans", cfg.AssistHandler.RankArtisans)
		protected.GET("/assist/history", cfg.AssistHandler.History)
		protected.POST("/projects/:id/analyze-risks", cfg.AssistHandler.AnalyzeProjectRisks)
	}

	admin := protected.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireRoles(types.RoleAdmin))
	}
	if cfg.AdminHandler != nil {
		admin.POST("/test-email", cfg.AdminHandler.SendTestEmail)
		admin.POST("/billing/sweep", cfg.AdminHandler.RunRenewalSweep)
		admin.POST("/reports/weekly-digest", cfg.AdminHandler.RunWeeklyDigest)
		admin.POST("/rollups/audit", cfg.AdminHandler.AuditRollups)
	}

	return r
}
