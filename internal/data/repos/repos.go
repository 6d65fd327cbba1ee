package repos

import (
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos/ai"
	"github.com/propflow/propflow-backend/internal/data/repos/billing"
	"github.com/propflow/propflow-backend/internal/data/repos/chat"
	"github.com/propflow/propflow-backend/internal/data/repos/crm"
	"github.com/propflow/propflow-backend/internal/data/repos/docs"
	"github.com/propflow/propflow-backend/internal/data/repos/invoices"
	"github.com/propflow/propflow-backend/internal/data/repos/notify"
	"github.com/propflow/propflow-backend/internal/data/repos/orders"
	"github.com/propflow/propflow-backend/internal/data/repos/payments"
	"github.com/propflow/propflow-backend/internal/data/repos/projects"
	"github.com/propflow/propflow-backend/internal/data/repos/tenancy"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type OrganizationRepo = tenancy.OrganizationRepo
type UserRepo = tenancy.UserRepo
type UserTokenRepo = tenancy.UserTokenRepo

type LeadRepo = crm.LeadRepo
type ArtisanProfileRepo = crm.ArtisanProfileRepo

type RFQRepo = orders.RFQRepo
type QuotationRepo = orders.QuotationRepo
type QuotationItemRepo = orders.QuotationItemRepo
type WorkOrderRepo = orders.WorkOrderRepo

type ProjectRepo = projects.ProjectRepo
type MilestoneRepo = projects.MilestoneRepo
type WeeklyUpdateRepo = projects.WeeklyUpdateRepo
type ExpenseRepo = projects.ExpenseRepo
type ChangeOrderRepo = projects.ChangeOrderRepo
type RiskRepo = projects.RiskRepo
type QualityRepo = projects.QualityRepo

type ContractorInvoiceRepo = invoices.ContractorInvoiceRepo
type PMInvoiceRepo = invoices.PMInvoiceRepo

type PaymentRequestRepo = payments.PaymentRequestRepo
type PayslipRepo = payments.PayslipRepo

type ConversationRepo = chat.ConversationRepo
type ParticipantRepo = chat.ParticipantRepo
type MessageRepo = chat.MessageRepo

type NotificationRepo = notify.NotificationRepo

type SubscriptionRepo = billing.SubscriptionRepo

type CallLogRepo = ai.CallLogRepo

type ReportDocumentRepo = docs.ReportDocumentRepo

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return tenancy.NewOrganizationRepo(db, baseLog)
}
func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return tenancy.NewUserRepo(db, baseLog)
}
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return tenancy.NewUserTokenRepo(db, baseLog)
}

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo { return crm.NewLeadRepo(db, baseLog) }
func NewArtisanProfileRepo(db *gorm.DB, baseLog *logger.Logger) ArtisanProfileRepo {
	return crm.NewArtisanProfileRepo(db, baseLog)
}

func NewRFQRepo(db *gorm.DB, baseLog *logger.Logger) RFQRepo { return orders.NewRFQRepo(db, baseLog) }
func NewQuotationRepo(db *gorm.DB, baseLog *logger.Logger) QuotationRepo {
	return orders.NewQuotationRepo(db, baseLog)
}
func NewQuotationItemRepo(db *gorm.DB, baseLog *logger.Logger) QuotationItemRepo {
	return orders.NewQuotationItemRepo(db, baseLog)
}
func NewWorkOrderRepo(db *gorm.DB, baseLog *logger.Logger) WorkOrderRepo {
	return orders.NewWorkOrderRepo(db, baseLog)
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return projects.NewProjectRepo(db, baseLog)
}
func NewMilestoneRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneRepo {
	return projects.NewMilestoneRepo(db, baseLog)
}
func NewWeeklyUpdateRepo(db *gorm.DB, baseLog *logger.Logger) WeeklyUpdateRepo {
	return projects.NewWeeklyUpdateRepo(db, baseLog)
}
func NewExpenseRepo(db *gorm.DB, baseLog *logger.Logger) ExpenseRepo {
	return projects.NewExpenseRepo(db, baseLog)
}
func NewChangeOrderRepo(db *gorm.DB, baseLog *logger.Logger) ChangeOrderRepo {
	return projects.NewChangeOrderRepo(db, baseLog)
}
func NewRiskRepo(db *gorm.DB, baseLog *logger.Logger) RiskRepo {
	return projects.NewRiskRepo(db, baseLog)
}
func NewQualityRepo(db *gorm.DB, baseLog *logger.Logger) QualityRepo {
	return projects.NewQualityRepo(db, baseLog)
}

func NewContractorInvoiceRepo(db *gorm.DB, baseLog *logger.Logger) ContractorInvoiceRepo {
	return invoices.NewContractorInvoiceRepo(db, baseLog)
}
func NewPMInvoiceRepo(db *gorm.DB, baseLog *logger.Logger) PMInvoiceRepo {
	return invoices.NewPMInvoiceRepo(db, baseLog)
}

func NewPaymentRequestRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRequestRepo {
	return payments.NewPaymentRequestRepo(db, baseLog)
}
func NewPayslipRepo(db *gorm.DB, baseLog *logger.Logger) PayslipRepo {
	return payments.NewPayslipRepo(db, baseLog)
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return chat.NewConversationRepo(db, baseLog)
}
func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return chat.NewParticipantRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return chat.NewMessageRepo(db, baseLog)
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return notify.NewNotificationRepo(db, baseLog)
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return billing.NewSubscriptionRepo(db, baseLog)
}

func NewCallLogRepo(db *gorm.DB, baseLog *logger.Logger) CallLogRepo {
	return ai.NewCallLogRepo(db, baseLog)
}

func NewReportDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ReportDocumentRepo {
	return docs.NewReportDocumentRepo(db, baseLog)
}
