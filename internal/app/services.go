package app

import (
	"fmt"

	"gorm.io/gorm"

	dataagg "github.com/propflow/propflow-backend/internal/data/aggregates"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/realtime"
	"github.com/propflow/propflow-backend/internal/services"
)

type Services struct {
	Avatar services.AvatarService
	Email  services.EmailService

	Auth         services.AuthService
	User         services.UserService
	Organization services.OrganizationService

	Lead      services.LeadService
	Artisan   services.ArtisanService
	RFQ       services.RFQService
	Quotation services.QuotationService
	Order     services.OrderService

	Project     services.ProjectService
	Milestone   services.MilestoneService
	ChangeOrder services.ChangeOrderService
	Risk        services.RiskService
	Quality     services.QualityService
	Expense     services.ExpenseService
	Rollup      services.RollupService

	Invoice services.InvoiceService
	Payment services.PaymentService

	Chat         services.ChatService
	Notification services.NotificationService
	Subscription services.SubscriptionService
	Assist       services.AssistService
	Report       services.ReportService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	reposet Repos,
	clients Clients,
	hub *realtime.SSEHub,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")

	base := dataagg.BaseDeps{
		DB:       db,
		Log:      log,
		Hooks:    dataagg.NewObservabilityHooks(metrics),
		CASGuard: dataagg.NewCASGuard(db),
	}
	ordersAgg := dataagg.NewOrdersAggregate(dataagg.OrdersAggregateDeps{
		Base:       base,
		Leads:      reposet.Leads,
		RFQs:       reposet.RFQs,
		Quotations: reposet.Quotations,
		WorkOrders: reposet.WorkOrders,
	})
	projectsAgg := dataagg.NewProjectsAggregate(dataagg.ProjectsAggregateDeps{
		Base:         base,
		Projects:     reposet.Projects,
		Milestones:   reposet.Milestones,
		Updates:      reposet.WeeklyUpdates,
		Expenses:     reposet.Expenses,
		ChangeOrders: reposet.ChangeOrders,
	})
	invoicesAgg := dataagg.NewInvoicesAggregate(dataagg.InvoicesAggregateDeps{
		Base:       base,
		Contractor: reposet.ContractorInvoices,
		PM:         reposet.PMInvoices,
	})
	paymentsAgg := dataagg.NewPaymentsAggregate(dataagg.PaymentsAggregateDeps{
		Base:     base,
		Requests: reposet.PaymentRequests,
		Payslips: reposet.Payslips,
		Orgs:     reposet.Orgs,
	})

	avatarService, err := services.NewAvatarService(log, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	emailService := services.NewEmailService(log, clients.Sendgrid)

	// With a Redis bus every event goes through Redis and comes back via
	// the forwarder, so all replicas fan out to their own SSE clients.
	var emitter services.SSEEmitter
	if clients.Bus != nil {
		emitter = &services.RedisEmitter{Bus: clients.Bus}
	} else {
		emitter = &services.HubEmitter{Hub: hub}
	}
	notifier := services.NewNotifier(emitter)
	chatNotifier := services.NewChatNotifier(emitter)

	notificationService := services.NewNotificationService(log, reposet.Notifications, notifier)
	subscriptionService := services.NewSubscriptionService(log, services.SubscriptionServiceDeps{
		DB:            db,
		Subscriptions: reposet.Subscriptions,
		Users:         reposet.Users,
		Catalog:       clients.Catalog,
		Notifications: notificationService,
	})

	authService, err := services.NewAuthService(log, services.AuthServiceDeps{
		DB:            db,
		Users:         reposet.Users,
		Tokens:        reposet.Tokens,
		Orgs:          reposet.Orgs,
		Subscriptions: reposet.Subscriptions,
		Catalog:       clients.Catalog,
		Avatars:       avatarService,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}
	userService := services.NewUserService(log, services.UserServiceDeps{
		DB:            db,
		Users:         reposet.Users,
		Tokens:        reposet.Tokens,
		Subscriptions: subscriptionService,
		Avatars:       avatarService,
	})
	orgService := services.NewOrganizationService(log, reposet.Orgs, reposet.Users, avatarService)

	leadService := services.NewLeadService(log, reposet.Leads, ordersAgg)
	artisanService := services.NewArtisanService(log, reposet.Profiles, reposet.Users)
	rfqService := services.NewRFQService(log, services.RFQServiceDeps{
		RFQs:          reposet.RFQs,
		Quotations:    reposet.Quotations,
		Users:         reposet.Users,
		Email:         emailService,
		Notifications: notificationService,
	})
	quotationService := services.NewQuotationService(log, services.QuotationServiceDeps{
		DB:            db,
		Quotations:    reposet.Quotations,
		Items:         reposet.QuotationItems,
		RFQs:          reposet.RFQs,
		Orders:        ordersAgg,
		Notifications: notificationService,
	})
	orderService := services.NewOrderService(log, services.OrderServiceDeps{
		DB:            db,
		WorkOrders:    reposet.WorkOrders,
		Users:         reposet.Users,
		Orders:        ordersAgg,
		Email:         emailService,
		Notifications: notificationService,
		Events:        notifier,
	})

	projectService := services.NewProjectService(log, reposet.Projects, reposet.WorkOrders)
	milestoneService := services.NewMilestoneService(log, services.MilestoneServiceDeps{
		Milestones:    reposet.Milestones,
		Projects:      reposet.Projects,
		WeeklyUpdates: reposet.WeeklyUpdates,
		Aggregate:     projectsAgg,
	})
	changeOrderService := services.NewChangeOrderService(log, services.ChangeOrderServiceDeps{
		ChangeOrders: reposet.ChangeOrders,
		Projects:     reposet.Projects,
		Aggregate:    projectsAgg,
	})
	riskService := services.NewRiskService(log, reposet.Risks, reposet.Projects)
	qualityService := services.NewQualityService(log, reposet.Quality, reposet.Projects)
	expenseService := services.NewExpenseService(log, services.ExpenseServiceDeps{
		Expenses:  reposet.Expenses,
		Projects:  reposet.Projects,
		Aggregate: projectsAgg,
		Bucket:    clients.Bucket,
	})
	rollupService := services.NewRollupService(log, services.RollupServiceDeps{
		Projects:      reposet.Projects,
		Milestones:    reposet.Milestones,
		WeeklyUpdates: reposet.WeeklyUpdates,
		Expenses:      reposet.Expenses,
		ChangeOrders:  reposet.ChangeOrders,
		Risks:         reposet.Risks,
		Quality:       reposet.Quality,
		Payments:      reposet.PaymentRequests,
	})

	invoiceService := services.NewInvoiceService(log, services.InvoiceServiceDeps{
		ContractorInvoices: reposet.ContractorInvoices,
		PMInvoices:         reposet.PMInvoices,
		Users:              reposet.Users,
		Aggregate:          invoicesAgg,
		Email:              emailService,
		Notifications:      notificationService,
		Events:             notifier,
	})
	paymentService := services.NewPaymentService(log, services.PaymentServiceDeps{
		Requests:      reposet.PaymentRequests,
		Payslips:      reposet.Payslips,
		Projects:      reposet.Projects,
		Users:         reposet.Users,
		Orgs:          reposet.Orgs,
		Profiles:      reposet.Profiles,
		Aggregate:     paymentsAgg,
		Bucket:        clients.Bucket,
		Email:         emailService,
		Notifications: notificationService,
		Events:        notifier,
	})

	chatService := services.NewChatService(log, services.ChatServiceDeps{
		DB:            db,
		Conversations: reposet.Conversations,
		Participants:  reposet.Participants,
		Messages:      reposet.Messages,
		Users:         reposet.Users,
		Bucket:        clients.Bucket,
		Notifications: notificationService,
		Events:        chatNotifier,
	})
	assistService := services.NewAssistService(log, services.AssistServiceDeps{
		AI:            clients.OpenAI,
		CallLogs:      reposet.CallLogs,
		Projects:      reposet.Projects,
		Risks:         reposet.Risks,
		Profiles:      reposet.Profiles,
		Users:         reposet.Users,
		Rollups:       rollupService,
		Subscriptions: subscriptionService,
	})
	reportService := services.NewReportService(log, services.ReportServiceDeps{
		DB:                 db,
		Documents:          reposet.Documents,
		Projects:           reposet.Projects,
		Milestones:         reposet.Milestones,
		WeeklyUpdates:      reposet.WeeklyUpdates,
		Risks:              reposet.Risks,
		RFQs:               reposet.RFQs,
		Quotations:         reposet.Quotations,
		WorkOrders:         reposet.WorkOrders,
		ContractorInvoices: reposet.ContractorInvoices,
		PMInvoices:         reposet.PMInvoices,
		Users:              reposet.Users,
		Orgs:               reposet.Orgs,
		Rollups:            rollupService,
		Bucket:             clients.Bucket,
		Email:              emailService,
		Notifications:      notificationService,
		Events:             notifier,
	})

	return Services{
		Avatar: avatarService,
		Email:  emailService,

		Auth:         authService,
		User:         userService,
		Organization: orgService,

		Lead:      leadService,
		Artisan:   artisanService,
		RFQ:       rfqService,
		Quotation: quotationService,
		Order:     orderService,

		Project:     projectService,
		Milestone:   milestoneService,
		ChangeOrder: changeOrderService,
		Risk:        riskService,
		Quality:     qualityService,
		Expense:     expenseService,
		Rollup:      rollupService,

		Invoice: invoiceService,
		Payment: paymentService,

		Chat:         chatService,
		Notification: notificationService,
		Subscription: subscriptionService,
		Assist:       assistService,
		Report:       reportService,
	}, nil
}
