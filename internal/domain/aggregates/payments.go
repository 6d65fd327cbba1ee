package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var PaymentsAggregateContract = Contract{
	Name:             "Payments.PaymentsAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the PENDING/APPROVED/REJECTED/PAID state machine and the paid-implies-payslip invariant.",
}

// PaymentsAggregate owns payment-request transitions. PAID is terminal
// and always carries a payslip created in the same transaction.
type PaymentsAggregate interface {
	Aggregate

	// DecidePaymentRequest moves PENDING to APPROVED or REJECTED; any
	// other source status is a conflict.
	DecidePaymentRequest(ctx context.Context, in DecidePaymentInput) (DecidePaymentResult, error)

	// MarkPaymentRequestPaid moves APPROVED to PAID and creates the
	// payslip atomically.
	MarkPaymentRequestPaid(ctx context.Context, in MarkPaymentPaidInput) (MarkPaymentPaidResult, error)
}

type DecidePaymentInput struct {
	OrgID            uuid.UUID
	PaymentRequestID uuid.UUID
	ReviewerID       uuid.UUID
	Approve          bool
	RejectReason     string
}

type DecidePaymentResult struct {
	PaymentRequestID uuid.UUID
	Status           string
	ReviewedAt       time.Time
}

type MarkPaymentPaidInput struct {
	OrgID            uuid.UUID
	PaymentRequestID uuid.UUID
	ActorID          uuid.UUID
	PeriodStart      time.Time
	PeriodEnd        time.Time
}

type MarkPaymentPaidResult struct {
	PaymentRequestID uuid.UUID
	PayslipID        uuid.UUID
	Reference        string
	Gross            float64
	Deductions       float64
	Net              float64
	PaidAt           time.Time
}
