package domain

import (
	"github.com/propflow/propflow-backend/internal/domain/ai"
	"github.com/propflow/propflow-backend/internal/domain/billing"
	"github.com/propflow/propflow-backend/internal/domain/chat"
	"github.com/propflow/propflow-backend/internal/domain/crm"
	"github.com/propflow/propflow-backend/internal/domain/docs"
	"github.com/propflow/propflow-backend/internal/domain/invoices"
	"github.com/propflow/propflow-backend/internal/domain/notify"
	"github.com/propflow/propflow-backend/internal/domain/orders"
	"github.com/propflow/propflow-backend/internal/domain/payments"
	"github.com/propflow/propflow-backend/internal/domain/projects"
	"github.com/propflow/propflow-backend/internal/domain/tenancy"
	"gorm.io/datatypes"
)

const (
	RoleAdmin           = tenancy.RoleAdmin
	RolePropertyManager = tenancy.RolePropertyManager
	RoleContractor      = tenancy.RoleContractor
	RoleArtisan         = tenancy.RoleArtisan

	LeadStatusNew       = crm.LeadStatusNew
	LeadStatusContacted = crm.LeadStatusContacted
	LeadStatusQualified = crm.LeadStatusQualified
	LeadStatusConverted = crm.LeadStatusConverted
	LeadStatusLost      = crm.LeadStatusLost

	RFQStatusOpen      = orders.RFQStatusOpen
	RFQStatusQuoted    = orders.RFQStatusQuoted
	RFQStatusConverted = orders.RFQStatusConverted
	RFQStatusClosed    = orders.RFQStatusClosed

	QuotationStatusDraft     = orders.QuotationStatusDraft
	QuotationStatusSubmitted = orders.QuotationStatusSubmitted
	QuotationStatusAccepted  = orders.QuotationStatusAccepted
	QuotationStatusRejected  = orders.QuotationStatusRejected
	QuotationStatusWithdrawn = orders.QuotationStatusWithdrawn

	OrderStatusPending    = orders.OrderStatusPending
	OrderStatusAccepted   = orders.OrderStatusAccepted
	OrderStatusInProgress = orders.OrderStatusInProgress
	OrderStatusCompleted  = orders.OrderStatusCompleted
	OrderStatusClosed     = orders.OrderStatusClosed
	OrderStatusCancelled  = orders.OrderStatusCancelled

	ProjectStatusPlanning  = projects.ProjectStatusPlanning
	ProjectStatusActive    = projects.ProjectStatusActive
	ProjectStatusOnHold    = projects.ProjectStatusOnHold
	ProjectStatusCompleted = projects.ProjectStatusCompleted
	ProjectStatusArchived  = projects.ProjectStatusArchived

	MilestoneStatusPlanned    = projects.MilestoneStatusPlanned
	MilestoneStatusInProgress = projects.MilestoneStatusInProgress
	MilestoneStatusCompleted  = projects.MilestoneStatusCompleted

	ChangeOrderStatusProposed = projects.ChangeOrderStatusProposed
	ChangeOrderStatusApproved = projects.ChangeOrderStatusApproved
	ChangeOrderStatusRejected = projects.ChangeOrderStatusRejected

	RiskSeverityLow      = projects.RiskSeverityLow
	RiskSeverityMedium   = projects.RiskSeverityMedium
	RiskSeverityHigh     = projects.RiskSeverityHigh
	RiskSeverityCritical = projects.RiskSeverityCritical

	RiskStatusOpen       = projects.RiskStatusOpen
	RiskStatusMitigating = projects.RiskStatusMitigating
	RiskStatusClosed     = projects.RiskStatusClosed

	CheckpointStatusPending = projects.CheckpointStatusPending
	CheckpointStatusPassed  = projects.CheckpointStatusPassed
	CheckpointStatusFailed  = projects.CheckpointStatusFailed

	ContractorInvoiceStatusDraft = invoices.ContractorInvoiceStatusDraft
	ContractorInvoiceStatusSent  = invoices.ContractorInvoiceStatusSent
	ContractorInvoiceStatusPaid  = invoices.ContractorInvoiceStatusPaid
	ContractorInvoiceStatusVoid  = invoices.ContractorInvoiceStatusVoid

	PMInvoiceStatusDraft      = invoices.PMInvoiceStatusDraft
	PMInvoiceStatusSentToPM   = invoices.PMInvoiceStatusSentToPM
	PMInvoiceStatusPMApproved = invoices.PMInvoiceStatusPMApproved
	PMInvoiceStatusPMRejected = invoices.PMInvoiceStatusPMRejected
	PMInvoiceStatusPaid       = invoices.PMInvoiceStatusPaid

	PaymentStatusPending  = payments.PaymentStatusPending
	PaymentStatusApproved = payments.PaymentStatusApproved
	PaymentStatusRejected = payments.PaymentStatusRejected
	PaymentStatusPaid     = payments.PaymentStatusPaid

	SubscriptionStatusTrialing  = billing.SubscriptionStatusTrialing
	SubscriptionStatusActive    = billing.SubscriptionStatusActive
	SubscriptionStatusPastDue   = billing.SubscriptionStatusPastDue
	SubscriptionStatusCancelled = billing.SubscriptionStatusCancelled
	SubscriptionStatusExpired   = billing.SubscriptionStatusExpired

	NotificationKindOrderAssigned   = notify.KindOrderAssigned
	NotificationKindQuotationMoved  = notify.KindQuotationMoved
	NotificationKindInvoiceDecision = notify.KindInvoiceDecision
	NotificationKindPaymentDecision = notify.KindPaymentDecision
	NotificationKindReportReady     = notify.KindReportReady
	NotificationKindChatMessage     = notify.KindChatMessage
	NotificationKindSubscription    = notify.KindSubscription

	AICallStatusOK     = ai.CallStatusOK
	AICallStatusFailed = ai.CallStatusFailed
	AIKindDraftEmail   = ai.KindDraftEmail
	AIKindRiskAnalysis = ai.KindRiskAnalysis
	AIKindRankArtisans = ai.KindRankArtisans

	DocumentKindRFQ           = docs.DocumentKindRFQ
	DocumentKindProjectReport = docs.DocumentKindProjectReport
	DocumentKindInvoice       = docs.DocumentKindInvoice
)

type Organization = tenancy.Organization
type User = tenancy.User
type UserToken = tenancy.UserToken

type Lead = crm.Lead
type ArtisanProfile = crm.ArtisanProfile

type RFQ = orders.RFQ
type Quotation = orders.Quotation
type QuotationItem = orders.QuotationItem
type WorkOrder = orders.WorkOrder

type Project = projects.Project
type Milestone = projects.Milestone
type WeeklyBudgetUpdate = projects.WeeklyBudgetUpdate
type Expense = projects.Expense
type ChangeOrder = projects.ChangeOrder
type ProjectRisk = projects.ProjectRisk
type QualityCheckpoint = projects.QualityCheckpoint

type ContractorInvoice = invoices.ContractorInvoice
type PropertyManagerInvoice = invoices.PropertyManagerInvoice
type InvoiceLine = invoices.InvoiceLine

type PaymentRequest = payments.PaymentRequest
type Payslip = payments.Payslip

type Conversation = chat.Conversation
type ConversationParticipant = chat.ConversationParticipant
type Message = chat.Message

type Notification = notify.Notification

type Subscription = billing.Subscription

type AICallLog = ai.AICallLog

type ReportDocument = docs.ReportDocument

func ValidRole(role string) bool { return tenancy.ValidRole(role) }

func OrderTransitionAllowed(from, to string) bool {
	return orders.OrderTransitionAllowed(from, to)
}

func PaymentTransitionAllowed(from, to string) bool {
	return payments.PaymentTransitionAllowed(from, to)
}

func EncodeInvoiceLines(lines []invoices.InvoiceLine) datatypes.JSON {
	return invoices.EncodeLines(lines)
}

func DecodeInvoiceLines(raw datatypes.JSON) []invoices.InvoiceLine {
	return invoices.DecodeLines(raw)
}
