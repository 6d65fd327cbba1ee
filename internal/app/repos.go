package app

import (
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type Repos struct {
	Orgs   repos.OrganizationRepo
	Users  repos.UserRepo
	Tokens repos.UserTokenRepo

	Leads    repos.LeadRepo
	Profiles repos.ArtisanProfileRepo

	RFQs           repos.RFQRepo
	Quotations     repos.QuotationRepo
	QuotationItems repos.QuotationItemRepo
	WorkOrders     repos.WorkOrderRepo

	Projects      repos.ProjectRepo
	Milestones    repos.MilestoneRepo
	WeeklyUpdates repos.WeeklyUpdateRepo
	Expenses      repos.ExpenseRepo
	ChangeOrders  repos.ChangeOrderRepo
	Risks         repos.RiskRepo
	Quality       repos.QualityRepo

	ContractorInvoices repos.ContractorInvoiceRepo
	PMInvoices         repos.PMInvoiceRepo
	PaymentRequests    repos.PaymentRequestRepo
	Payslips           repos.PayslipRepo

	Conversations repos.ConversationRepo
	Participants  repos.ParticipantRepo
	Messages      repos.MessageRepo

	Notifications repos.NotificationRepo
	Subscriptions repos.SubscriptionRepo
	CallLogs      repos.CallLogRepo
	Documents     repos.ReportDocumentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Orgs:   repos.NewOrganizationRepo(db, log),
		Users:  repos.NewUserRepo(db, log),
		Tokens: repos.NewUserTokenRepo(db, log),

		Leads:    repos.NewLeadRepo(db, log),
		Profiles: repos.NewArtisanProfileRepo(db, log),

		RFQs:           repos.NewRFQRepo(db, log),
		Quotations:     repos.NewQuotationRepo(db, log),
		QuotationItems: repos.NewQuotationItemRepo(db, log),
		WorkOrders:     repos.NewWorkOrderRepo(db, log),

		Projects:      repos.NewProjectRepo(db, log),
		Milestones:    repos.NewMilestoneRepo(db, log),
		WeeklyUpdates: repos.NewWeeklyUpdateRepo(db, log),
		Expenses:      repos.NewExpenseRepo(db, log),
		ChangeOrders:  repos.NewChangeOrderRepo(db, log),
		Risks:         repos.NewRiskRepo(db, log),
		Quality:       repos.NewQualityRepo(db, log),

		ContractorInvoices: repos.NewContractorInvoiceRepo(db, log),
		PMInvoices:         repos.NewPMInvoiceRepo(db, log),
		PaymentRequests:    repos.NewPaymentRequestRepo(db, log),
		Payslips:           repos.NewPayslipRepo(db, log),

		Conversations: repos.NewConversationRepo(db, log),
		Participants:  repos.NewParticipantRepo(db, log),
		Messages:      repos.NewMessageRepo(db, log),

		Notifications: repos.NewNotificationRepo(db, log),
		Subscriptions: repos.NewSubscriptionRepo(db, log),
		CallLogs:      repos.NewCallLogRepo(db, log),
		Documents:     repos.NewReportDocumentRepo(db, log),
	}
}
