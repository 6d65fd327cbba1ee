package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var OrdersAggregateContract = Contract{
	Name:             "Orders.OrdersAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns lead conversion, quotation acceptance, and the RFQ-to-order convert-once invariant.",
}

// OrdersAggregate owns the conversion invariants of the ordering flow.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type OrdersAggregate interface {
	Aggregate

	// ConvertLeadToRFQ atomically marks the lead CONVERTED and creates the
	// OPEN RFQ; a second conversion attempt is a conflict.
	ConvertLeadToRFQ(ctx context.Context, in ConvertLeadInput) (ConvertLeadResult, error)

	// AcceptQuotation atomically accepts one quotation and rejects its
	// SUBMITTED siblings on the same RFQ.
	AcceptQuotation(ctx context.Context, in AcceptQuotationInput) (AcceptQuotationResult, error)

	// ConvertRFQToOrder atomically creates the work order from an accepted
	// quotation and stamps the RFQ CONVERTED; an RFQ converts at most once.
	ConvertRFQToOrder(ctx context.Context, in ConvertRFQInput) (ConvertRFQResult, error)
}

type ConvertLeadInput struct {
	OrgID    uuid.UUID
	LeadID   uuid.UUID
	ActorID  uuid.UUID
	Title    string
	Category string
	Deadline *time.Time
}

type ConvertLeadResult struct {
	LeadID      uuid.UUID
	RFQID       uuid.UUID
	ConvertedAt time.Time
}

type AcceptQuotationInput struct {
	OrgID       uuid.UUID
	QuotationID uuid.UUID
	ActorID     uuid.UUID
}

type AcceptQuotationResult struct {
	QuotationID      uuid.UUID
	RFQID            uuid.UUID
	RejectedSiblings int
	AcceptedAt       time.Time
}

type ConvertRFQInput struct {
	OrgID       uuid.UUID
	RFQID       uuid.UUID
	QuotationID uuid.UUID
	ActorID     uuid.UUID
	StartDate   *time.Time
	DueDate     *time.Time
}

type ConvertRFQResult struct {
	RFQID       uuid.UUID
	OrderID     uuid.UUID
	OrderNumber string
	ConvertedAt time.Time
}
