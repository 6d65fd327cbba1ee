package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var InvoicesAggregateContract = Contract{
	Name:             "Invoices.InvoicesAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns invoice-number uniqueness across both invoice tables and the PM approval state machine.",
}

// InvoicesAggregate owns invoice issuance and status transitions.
// Issuing checks the number against both invoice tables inside the
// issuing transaction; the per-table unique indexes backstop races.
type InvoicesAggregate interface {
	Aggregate

	// IssueContractorInvoice assigns the number and creates the invoice.
	IssueContractorInvoice(ctx context.Context, in IssueContractorInvoiceInput) (IssueInvoiceResult, error)

	// IssuePMInvoice assigns the number and creates the PM invoice.
	IssuePMInvoice(ctx context.Context, in IssuePMInvoiceInput) (IssueInvoiceResult, error)

	// SendPMInvoice moves DRAFT to SENT_TO_PM.
	SendPMInvoice(ctx context.Context, in PMInvoiceTransitionInput) (PMInvoiceTransitionResult, error)

	// DecidePMInvoice approves or rejects, only from SENT_TO_PM.
	DecidePMInvoice(ctx context.Context, in DecidePMInvoiceInput) (PMInvoiceTransitionResult, error)

	// MarkPMInvoicePaid moves PM_APPROVED to PAID.
	MarkPMInvoicePaid(ctx context.Context, in PMInvoiceTransitionInput) (PMInvoiceTransitionResult, error)

	// TransitionContractorInvoice applies DRAFT->SENT, SENT->PAID, or a
	// void from DRAFT/SENT.
	TransitionContractorInvoice(ctx context.Context, in ContractorInvoiceTransitionInput) (ContractorInvoiceTransitionResult, error)
}

type InvoiceLineInput struct {
	Description string
	Quantity    float64
	UnitCost    float64
}

type IssueContractorInvoiceInput struct {
	OrgID        uuid.UUID
	ActorID      uuid.UUID
	ContractorID uuid.UUID
	ProjectID    *uuid.UUID
	WorkOrderID  *uuid.UUID
	Currency     string
	TaxRate      float64
	Lines        []InvoiceLineInput
	DueDate      *time.Time
}

type IssuePMInvoiceInput struct {
	OrgID        uuid.UUID
	ActorID      uuid.UUID
	ProjectID    uuid.UUID
	PMID         uuid.UUID
	ContractorID uuid.UUID
	Currency     string
	TaxRate      float64
	Lines        []InvoiceLineInput
}

type IssueInvoiceResult struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Total         float64
	IssuedAt      time.Time
}

type PMInvoiceTransitionInput struct {
	OrgID     uuid.UUID
	InvoiceID uuid.UUID
	ActorID   uuid.UUID
}

type DecidePMInvoiceInput struct {
	OrgID        uuid.UUID
	InvoiceID    uuid.UUID
	ActorID      uuid.UUID
	Approve      bool
	RejectReason string
}

type PMInvoiceTransitionResult struct {
	InvoiceID uuid.UUID
	Status    string
	MovedAt   time.Time
}

type ContractorInvoiceTransitionInput struct {
	OrgID     uuid.UUID
	InvoiceID uuid.UUID
	ActorID   uuid.UUID
	ToStatus  string
}

type ContractorInvoiceTransitionResult struct {
	InvoiceID uuid.UUID
	Status    string
	MovedAt   time.Time
}
