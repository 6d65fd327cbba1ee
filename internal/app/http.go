package app

import (
	"github.com/gin-gonic/gin"

	httpx "github.com/propflow/propflow-backend/internal/http"
	httpH "github.com/propflow/propflow-backend/internal/http/handlers"
	httpMW "github.com/propflow/propflow-backend/internal/http/middleware"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/realtime"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Org          *httpH.OrgHandler
	Lead         *httpH.LeadHandler
	RFQ          *httpH.RFQHandler
	Quotation    *httpH.QuotationHandler
	Order        *httpH.OrderHandler
	Project      *httpH.ProjectHandler
	Milestone    *httpH.MilestoneHandler
	ChangeOrder  *httpH.ChangeOrderHandler
	Risk         *httpH.RiskHandler
	Quality      *httpH.QualityHandler
	Expense      *httpH.ExpenseHandler
	Invoice      *httpH.InvoiceHandler
	Payment      *httpH.PaymentHandler
	Chat         *httpH.ChatHandler
	Notification *httpH.NotificationHandler
	Realtime     *httpH.RealtimeHandler
	Subscription *httpH.SubscriptionHandler
	Artisan      *httpH.ArtisanHandler
	Assist       *httpH.AssistHandler
	Report       *httpH.ReportHandler
	Admin        *httpH.AdminHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(),
		Auth:         httpH.NewAuthHandler(serviceset.Auth),
		User:         httpH.NewUserHandler(serviceset.User),
		Org:          httpH.NewOrgHandler(serviceset.Organization),
		Lead:         httpH.NewLeadHandler(serviceset.Lead),
		RFQ:          httpH.NewRFQHandler(serviceset.RFQ),
		Quotation:    httpH.NewQuotationHandler(serviceset.Quotation),
		Order:        httpH.NewOrderHandler(serviceset.Order),
		Project:      httpH.NewProjectHandler(serviceset.Project, serviceset.Rollup),
		Milestone:    httpH.NewMilestoneHandler(serviceset.Milestone),
		ChangeOrder:  httpH.NewChangeOrderHandler(serviceset.ChangeOrder),
		Risk:         httpH.NewRiskHandler(serviceset.Risk),
		Quality:      httpH.NewQualityHandler(serviceset.Quality),
		Expense:      httpH.NewExpenseHandler(serviceset.Expense),
		Invoice:      httpH.NewInvoiceHandler(serviceset.Invoice),
		Payment:      httpH.NewPaymentHandler(serviceset.Payment),
		Chat:         httpH.NewChatHandler(serviceset.Chat),
		Notification: httpH.NewNotificationHandler(serviceset.Notification),
		Realtime:     httpH.NewRealtimeHandler(log, hub),
		Subscription: httpH.NewSubscriptionHandler(serviceset.Subscription),
		Artisan:      httpH.NewArtisanHandler(serviceset.Artisan),
		Assist:       httpH.NewAssistHandler(serviceset.Assist),
		Report:       httpH.NewReportHandler(serviceset.Report),
		Admin: httpH.NewAdminHandler(
			serviceset.Email,
			serviceset.Subscription,
			serviceset.Report,
			serviceset.Rollup,
		),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, serviceset.Auth),
		RateLimit: httpMW.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func wireRouter(log *logger.Logger, metrics *observability.Metrics, handlerset Handlers, mw Middleware) *gin.Engine {
	return httpx.NewRouter(httpx.RouterConfig{
		Log:         log,
		Metrics:     metrics,
		RateLimiter: mw.RateLimit,

		AuthMiddleware: mw.Auth,

		HealthHandler:       handlerset.Health,
		AuthHandler:         handlerset.Auth,
		UserHandler:         handlerset.User,
		OrgHandler:          handlerset.Org,
		LeadHandler:         handlerset.Lead,
		RFQHandler:          handlerset.RFQ,
		QuotationHandler:    handlerset.Quotation,
		OrderHandler:        handlerset.Order,
		ProjectHandler:      handlerset.Project,
		MilestoneHandler:    handlerset.Milestone,
		ChangeOrderHandler:  handlerset.ChangeOrder,
		RiskHandler:         handlerset.Risk,
		QualityHandler:      handlerset.Quality,
		ExpenseHandler:      handlerset.Expense,
		InvoiceHandler:      handlerset.Invoice,
		PaymentHandler:      handlerset.Payment,
		ChatHandler:         handlerset.Chat,
		NotificationHandler: handlerset.Notification,
		RealtimeHandler:     handlerset.Realtime,
		SubscriptionHandler: handlerset.Subscription,
		ArtisanHandler:      handlerset.Artisan,
		AssistHandler:       handlerset.Assist,
		ReportHandler:       handlerset.Report,
		AdminHandler:        handlerset.Admin,
	})
}
