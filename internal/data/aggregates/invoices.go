package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

// invoiceNumberAttempts bounds the bump loop when an allocated number
// is already taken in either invoice table.
const invoiceNumberAttempts = 25

type InvoicesAggregateDeps struct {
	Base BaseDeps

	Contractor repos.ContractorInvoiceRepo
	PM         repos.PMInvoiceRepo
}

type invoicesAggregate struct {
	deps InvoicesAggregateDeps
}

func NewInvoicesAggregate(deps InvoicesAggregateDeps) domainagg.InvoicesAggregate {
	deps.Base = deps.Base.withDefaults()
	return &invoicesAggregate{deps: deps}
}

func (a *invoicesAggregate) Contract() domainagg.Contract {
	return domainagg.InvoicesAggregateContract
}

func (a *invoicesAggregate) IssueContractorInvoice(ctx context.Context, in domainagg.IssueContractorInvoiceInput) (domainagg.IssueInvoiceResult, error) {
	const op = "Invoices.IssueContractorInvoice"
	var out domainagg.IssueInvoiceResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.ContractorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing contractor_id", nil)
	}
	lines, subtotal, err := buildInvoiceLines(op, in.Lines)
	if err != nil {
		return out, err
	}
	if in.TaxRate < 0 || in.TaxRate >= 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "tax rate out of range", nil)
	}
	if a.deps.Contractor == nil || a.deps.PM == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "invoices aggregate repos not configured", nil)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	tax := round2(subtotal * in.TaxRate)
	total := round2(subtotal + tax)
	issuedAt := time.Now().UTC()

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		number, err := a.nextInvoiceNumber(dbc, op, issuedAt)
		if err != nil {
			return err
		}
		inv := &types.ContractorInvoice{
			ID:            uuid.New(),
			OrgID:         in.OrgID,
			InvoiceNumber: number,
			ProjectID:     in.ProjectID,
			WorkOrderID:   in.WorkOrderID,
			ContractorID:  in.ContractorID,
			Status:        types.ContractorInvoiceStatusDraft,
			Currency:      currency,
			Amount:        subtotal,
			Tax:           tax,
			Total:         total,
			Lines:         types.EncodeInvoiceLines(lines),
			DueDate:       in.DueDate,
			CreatedBy:     in.ActorID,
		}
		if _, err := a.deps.Contractor.Create(dbc, []*types.ContractorInvoice{inv}); err != nil {
			return err
		}
		out = domainagg.IssueInvoiceResult{
			InvoiceID:     inv.ID,
			InvoiceNumber: number,
			Total:         total,
			IssuedAt:      issuedAt,
		}
		return nil
	})
	return out, err
}

func (a *invoicesAggregate) IssuePMInvoice(ctx context.Context, in domainagg.IssuePMInvoiceInput) (domainagg.IssueInvoiceResult, error) {
	const op = "Invoices.IssuePMInvoice"
	var out domainagg.IssueInvoiceResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.ProjectID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	if in.PMID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing pm_id", nil)
	}
	if in.ContractorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing contractor_id", nil)
	}
	lines, subtotal, err := buildInvoiceLines(op, in.Lines)
	if err != nil {
		return out, err
	}
	if in.TaxRate < 0 || in.TaxRate >= 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "tax rate out of range", nil)
	}
	if a.deps.Contractor == nil || a.deps.PM == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "invoices aggregate repos not configured", nil)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	tax := round2(subtotal * in.TaxRate)
	total := round2(subtotal + tax)
	issuedAt := time.Now().UTC()

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		number, err := a.nextInvoiceNumber(dbc, op, issuedAt)
		if err != nil {
			return err
		}
		inv := &types.PropertyManagerInvoice{
			ID:            uuid.New(),
			OrgID:         in.OrgID,
			InvoiceNumber: number,
			ProjectID:     in.ProjectID,
			PMID:          in.PMID,
			ContractorID:  in.ContractorID,
			Status:        types.PMInvoiceStatusDraft,
			Currency:      currency,
			Amount:        subtotal,
			Tax:           tax,
			Total:         total,
			Lines:         types.EncodeInvoiceLines(lines),
			CreatedBy:     in.ActorID,
		}
		if _, err := a.deps.PM.Create(dbc, []*types.PropertyManagerInvoice{inv}); err != nil {
			return err
		}
		out = domainagg.IssueInvoiceResult{
			InvoiceID:     inv.ID,
			InvoiceNumber: number,
			Total:         total,
			IssuedAt:      issuedAt,
		}
		return nil
	})
	return out, err
}

func (a *invoicesAggregate) SendPMInvoice(ctx context.Context, in domainagg.PMInvoiceTransitionInput) (domainagg.PMInvoiceTransitionResult, error) {
	const op = "Invoices.SendPMInvoice"
	var out domainagg.PMInvoiceTransitionResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.InvoiceID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing invoice_id", nil)
	}
	if a.deps.PM == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "invoices aggregate repos not configured", nil)
	}

	sentAt := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		inv, err := a.deps.PM.LockByID(dbc, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil || inv.ID == uuid.Nil || inv.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pm invoice not found: %s", in.InvoiceID.String()), nil)
		}
		if err := RequireStatusAllowed(inv.Status, types.PMInvoiceStatusDraft); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.PropertyManagerInvoice{}.TableName(), inv.ID,
			[]string{types.PMInvoiceStatusDraft},
			map[string]any{
				"status":        types.PMInvoiceStatusSentToPM,
				"sent_to_pm_at": sentAt,
				"updated_at":    sentAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "pm invoice already sent"); err != nil {
			return err
		}

		out = domainagg.PMInvoiceTransitionResult{
			InvoiceID: inv.ID,
			Status:    types.PMInvoiceStatusSentToPM,
			MovedAt:   sentAt,
		}
		return nil
	})
	return out, err
}

func (a *invoicesAggregate) DecidePMInvoice(ctx context.Context, in domainagg.DecidePMInvoiceInput) (domainagg.PMInvoiceTransitionResult, error) {
	const op = "Invoices.DecidePMInvoice"
	var out domainagg.PMInvoiceTransitionResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.InvoiceID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing invoice_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if !in.Approve && strings.TrimSpace(in.RejectReason) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing reject reason", nil)
	}
	if a.deps.PM == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "invoices aggregate repos not configured", nil)
	}

	decidedAt := time.Now().UTC()
	target := types.PMInvoiceStatusPMRejected
	if in.Approve {
		target = types.PMInvoiceStatusPMApproved
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		inv, err := a.deps.PM.LockByID(dbc, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil || inv.ID == uuid.Nil || inv.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pm invoice not found: %s", in.InvoiceID.String()), nil)
		}
		if inv.PMID != in.ActorID {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "only the assigned property manager may decide this invoice", nil)
		}
		if err := RequireStatusAllowed(inv.Status, types.PMInvoiceStatusSentToPM); err != nil {
			return err
		}

		updates := map[string]any{
			"status":     target,
			"decided_at": decidedAt,
			"updated_at": decidedAt,
		}
		if !in.Approve {
			updates["reject_reason"] = strings.TrimSpace(in.RejectReason)
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.PropertyManagerInvoice{}.TableName(), inv.ID,
			[]string{types.PMInvoiceStatusSentToPM}, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "pm invoice already decided"); err != nil {
			return err
		}

		out = domainagg.PMInvoiceTransitionResult{
			InvoiceID: inv.ID,
			Status:    target,
			MovedAt:   decidedAt,
		}
		return nil
	})
	return out, err
}

func (a *invoicesAggregate) MarkPMInvoicePaid(ctx context.Context, in domainagg.PMInvoiceTransitionInput) (domainagg.PMInvoiceTransitionResult, error) {
	const op = "Invoices.MarkPMInvoicePaid"
	var out domainagg.PMInvoiceTransitionResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.InvoiceID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing invoice_id", nil)
	}
	if a.deps.PM == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "invoices aggregate repos not configured", nil)
	}

	paidAt := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		inv, err := a.deps.PM.LockByID(dbc, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil || inv.ID == uuid.Nil || inv.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pm invoice not found: %s", in.InvoiceID.String()), nil)
		}
		if err := RequireStatusAllowed(inv.Status, types.PMInvoiceStatusPMApproved); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.PropertyManagerInvoice{}.TableName(), inv.ID,
			[]string{types.PMInvoiceStatusPMApproved},
			map[string]any{
				"status":     types.PMInvoiceStatusPaid,
				"paid_at":    paidAt,
				"updated_at": paidAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "pm invoice no longer approved"); err != nil {
			return err
		}

		out = domainagg.PMInvoiceTransitionResult{
			InvoiceID: inv.ID,
			Status:    types.PMInvoiceStatusPaid,
			MovedAt:   paidAt,
		}
		return nil
	})
	return out, err
}

func (a *invoicesAggregate) TransitionContractorInvoice(ctx context.Context, in domainagg.ContractorInvoiceTransitionInput) (domainagg.ContractorInvoiceTransitionResult, error) {
	const op = "Invoices.TransitionContractorInvoice"
	var out domainagg.ContractorInvoiceTransitionResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.InvoiceID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing invoice_id", nil)
	}
	target := strings.ToUpper(strings.TrimSpace(in.ToStatus))
	var allowedFrom []string
	switch target {
	case types.ContractorInvoiceStatusSent:
		allowedFrom = []string{types.ContractorInvoiceStatusDraft}
	case types.ContractorInvoiceStatusPaid:
		allowedFrom = []string{types.ContractorInvoiceStatusSent}
	case types.ContractorInvoiceStatusVoid:
		allowedFrom = []string{types.ContractorInvoiceStatusDraft, types.ContractorInvoiceStatusSent}
	default:
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unsupported target status: %s", in.ToStatus), nil)
	}
	if a.deps.Contractor == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "invoices aggregate repos not configured", nil)
	}

	movedAt := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		inv, err := a.deps.Contractor.LockByID(dbc, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil || inv.ID == uuid.Nil || inv.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("contractor invoice not found: %s", in.InvoiceID.String()), nil)
		}
		if err := RequireStatusAllowed(inv.Status, allowedFrom...); err != nil {
			return err
		}

		updates := map[string]any{
			"status":     target,
			"updated_at": movedAt,
		}
		switch target {
		case types.ContractorInvoiceStatusSent:
			updates["sent_at"] = movedAt
		case types.ContractorInvoiceStatusPaid:
			updates["paid_at"] = movedAt
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.ContractorInvoice{}.TableName(), inv.ID,
			allowedFrom, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "contractor invoice already moved"); err != nil {
			return err
		}

		out = domainagg.ContractorInvoiceTransitionResult{
			InvoiceID: inv.ID,
			Status:    target,
			MovedAt:   movedAt,
		}
		return nil
	})
	return out, err
}

// nextInvoiceNumber allocates the next free number in the shared
// namespace. The base sequence comes from an unscoped count over both
// tables; collisions bump the sequence until a free slot is found. Each
// unique index only covers its own table, so two issuers racing across
// tables can still mint the same number; the shared namespace is
// best-effort until allocation moves to a dedicated sequence.
func (a *invoicesAggregate) nextInvoiceNumber(dbc dbctx.Context, op string, issuedAt time.Time) (string, error) {
	contractorCount, err := a.deps.Contractor.CountAll(dbc)
	if err != nil {
		return "", err
	}
	pmCount, err := a.deps.PM.CountAll(dbc)
	if err != nil {
		return "", err
	}
	seq := contractorCount + pmCount + 1
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		candidate := fmt.Sprintf("INV-%d-%04d", issuedAt.Year(), seq)
		taken, err := a.deps.Contractor.ExistsByNumber(dbc, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			taken, err = a.deps.PM.ExistsByNumber(dbc, candidate)
			if err != nil {
				return "", err
			}
		}
		if !taken {
			return candidate, nil
		}
		seq++
	}
	return "", domainagg.NewError(domainagg.CodeConflict, op, "invoice number allocation exhausted retries", nil)
}

func buildInvoiceLines(op string, in []domainagg.InvoiceLineInput) ([]types.InvoiceLine, float64, error) {
	if len(in) == 0 {
		return nil, 0, domainagg.NewError(domainagg.CodeValidation, op, "invoice lines must not be empty", nil)
	}
	lines := make([]types.InvoiceLine, 0, len(in))
	var subtotal float64
	for i, l := range in {
		desc := strings.TrimSpace(l.Description)
		if desc == "" {
			return nil, 0, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("line %d: missing description", i+1), nil)
		}
		if l.Quantity <= 0 {
			return nil, 0, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("line %d: quantity must be positive", i+1), nil)
		}
		if l.UnitCost < 0 {
			return nil, 0, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("line %d: unit cost must not be negative", i+1), nil)
		}
		amount := round2(l.Quantity * l.UnitCost)
		lines = append(lines, types.InvoiceLine{
			Description: desc,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
			Amount:      amount,
		})
		subtotal += amount
	}
	return lines, round2(subtotal), nil
}
