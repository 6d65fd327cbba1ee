package aggregates

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

type PaymentsAggregateDeps struct {
	Base BaseDeps

	Requests repos.PaymentRequestRepo
	Payslips repos.PayslipRepo
	Orgs     repos.OrganizationRepo
}

type paymentsAggregate struct {
	deps PaymentsAggregateDeps
}

func NewPaymentsAggregate(deps PaymentsAggregateDeps) domainagg.PaymentsAggregate {
	deps.Base = deps.Base.withDefaults()
	return &paymentsAggregate{deps: deps}
}

func (a *paymentsAggregate) Contract() domainagg.Contract {
	return domainagg.PaymentsAggregateContract
}

func (a *paymentsAggregate) DecidePaymentRequest(ctx context.Context, in domainagg.DecidePaymentInput) (domainagg.DecidePaymentResult, error) {
	const op = "Payments.DecidePaymentRequest"
	var out domainagg.DecidePaymentResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.PaymentRequestID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing payment_request_id", nil)
	}
	if in.ReviewerID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing reviewer_id", nil)
	}
	if !in.Approve && strings.TrimSpace(in.RejectReason) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing reject reason", nil)
	}
	if a.deps.Requests == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "payments aggregate repos not configured", nil)
	}

	reviewedAt := time.Now().UTC()
	target := types.PaymentStatusRejected
	if in.Approve {
		target = types.PaymentStatusApproved
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		pr, err := a.deps.Requests.LockByID(dbc, in.PaymentRequestID)
		if err != nil {
			return err
		}
		if pr == nil || pr.ID == uuid.Nil || pr.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("payment request not found: %s", in.PaymentRequestID.String()), nil)
		}
		if !types.PaymentTransitionAllowed(pr.Status, target) {
			return ConflictError(fmt.Sprintf("payment transition %s -> %s not allowed", pr.Status, target))
		}

		updates := map[string]any{
			"status":      target,
			"reviewed_by": in.ReviewerID,
			"reviewed_at": reviewedAt,
			"updated_at":  reviewedAt,
		}
		if !in.Approve {
			updates["reject_reason"] = strings.TrimSpace(in.RejectReason)
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.PaymentRequest{}.TableName(), pr.ID,
			[]string{types.PaymentStatusPending}, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "payment request already decided"); err != nil {
			return err
		}

		out = domainagg.DecidePaymentResult{
			PaymentRequestID: pr.ID,
			Status:           target,
			ReviewedAt:       reviewedAt,
		}
		return nil
	})
	return out, err
}

func (a *paymentsAggregate) MarkPaymentRequestPaid(ctx context.Context, in domainagg.MarkPaymentPaidInput) (domainagg.MarkPaymentPaidResult, error) {
	const op = "Payments.MarkPaymentRequestPaid"
	var out domainagg.MarkPaymentPaidResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.PaymentRequestID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing payment_request_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() || in.PeriodEnd.Before(in.PeriodStart) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "invalid payslip period", nil)
	}
	if a.deps.Requests == nil || a.deps.Payslips == nil || a.deps.Orgs == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "payments aggregate repos not configured", nil)
	}

	paidAt := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		pr, err := a.deps.Requests.LockByID(dbc, in.PaymentRequestID)
		if err != nil {
			return err
		}
		if pr == nil || pr.ID == uuid.Nil || pr.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("payment request not found: %s", in.PaymentRequestID.String()), nil)
		}
		if !types.PaymentTransitionAllowed(pr.Status, types.PaymentStatusPaid) {
			return ConflictError(fmt.Sprintf("payment transition %s -> %s not allowed", pr.Status, types.PaymentStatusPaid))
		}

		orgs, err := a.deps.Orgs.GetByIDs(dbc, []uuid.UUID{pr.OrgID})
		if err != nil {
			return err
		}
		if len(orgs) == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("organization not found: %s", pr.OrgID.String()), nil)
		}
		rate := orgs[0].DeductionRate
		if rate < 0 || rate >= 1 {
			return InvariantError(fmt.Sprintf("organization deduction rate out of range: %v", rate))
		}

		gross := pr.Amount
		deductions := round2(gross * rate)
		net := round2(gross - deductions)

		slip := &types.Payslip{
			ID:               uuid.New(),
			OrgID:            pr.OrgID,
			PaymentRequestID: pr.ID,
			ArtisanID:        pr.ArtisanID,
			PeriodStart:      in.PeriodStart.UTC(),
			PeriodEnd:        in.PeriodEnd.UTC(),
			Gross:            gross,
			Deductions:       deductions,
			Net:              net,
			Reference:        payslipReference(pr.ID),
		}
		if _, err := a.deps.Payslips.Create(dbc, []*types.Payslip{slip}); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.PaymentRequest{}.TableName(), pr.ID,
			[]string{types.PaymentStatusApproved},
			map[string]any{
				"status":     types.PaymentStatusPaid,
				"paid_at":    paidAt,
				"updated_at": paidAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "payment request no longer approved"); err != nil {
			return err
		}

		out = domainagg.MarkPaymentPaidResult{
			PaymentRequestID: pr.ID,
			PayslipID:        slip.ID,
			Reference:        slip.Reference,
			Gross:            gross,
			Deductions:       deductions,
			Net:              net,
			PaidAt:           paidAt,
		}
		return nil
	})
	return out, err
}

// payslipReference derives the slip reference from the payment request id so
// a retried mark-paid produces the same reference instead of a new one.
func payslipReference(requestID uuid.UUID) string {
	compact := strings.ReplaceAll(requestID.String(), "-", "")
	return "PS-" + strings.ToUpper(compact[:10])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
