package aggregates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	repotest "github.com/propflow/propflow-backend/internal/data/repos/testutil"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

type invoicesTestEnv struct {
	tx         *gorm.DB
	agg        domainagg.InvoicesAggregate
	contractor repos.ContractorInvoiceRepo
	pm         repos.PMInvoiceRepo
}

func newInvoicesTestEnv(t *testing.T) *invoicesTestEnv {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)

	env := &invoicesTestEnv{
		tx:         tx,
		contractor: repos.NewContractorInvoiceRepo(tx, log),
		pm:         repos.NewPMInvoiceRepo(tx, log),
	}
	env.agg = NewInvoicesAggregate(InvoicesAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Contractor: env.contractor,
		PM:         env.pm,
	})
	return env
}

func TestInvoicesAggregateIssueSharedNumberSequence(t *testing.T) {
	env := newInvoicesTestEnv(t)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	org := repotest.SeedOrg(t, ctx, env.tx, "inv-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	contractor := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleContractor)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)

	first, err := env.agg.IssueContractorInvoice(ctx, domainagg.IssueContractorInvoiceInput{
		OrgID:        org.ID,
		ActorID:      pm.ID,
		ContractorID: contractor.ID,
		TaxRate:      0.1,
		Lines: []domainagg.InvoiceLineInput{
			{Description: "Labour", Quantity: 3, UnitCost: 100},
			{Description: "Sealant", Quantity: 1, UnitCost: 49.99},
		},
	})
	if err != nil {
		t.Fatalf("IssueContractorInvoice: %v", err)
	}
	if want := fmt.Sprintf("INV-%d-0001", year); first.InvoiceNumber != want {
		t.Fatalf("first number: want=%s got=%s", want, first.InvoiceNumber)
	}
	if first.Total != 384.99 {
		t.Fatalf("first total: want=384.99 got=%v", first.Total)
	}

	rows, err := env.contractor.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{first.InvoiceID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload invoice: rows=%d err=%v", len(rows), err)
	}
	if rows[0].Status != types.ContractorInvoiceStatusDraft {
		t.Fatalf("status: want=%s got=%s", types.ContractorInvoiceStatusDraft, rows[0].Status)
	}
	if rows[0].Amount != 349.99 || rows[0].Tax != 35 {
		t.Fatalf("money: amount=%v tax=%v", rows[0].Amount, rows[0].Tax)
	}
	if rows[0].Currency != "USD" {
		t.Fatalf("currency default: got=%s", rows[0].Currency)
	}
	lines := types.DecodeInvoiceLines(rows[0].Lines)
	if len(lines) != 2 || lines[0].Amount != 300 {
		t.Fatalf("stored lines: %+v", lines)
	}

	// Occupy the next computed slot so allocation has to bump past it.
	repotest.SeedContractorInvoice(t, ctx, env.tx, org.ID, contractor.ID, pm.ID,
		fmt.Sprintf("INV-%d-0003", year))

	second, err := env.agg.IssuePMInvoice(ctx, domainagg.IssuePMInvoiceInput{
		OrgID:        org.ID,
		ActorID:      pm.ID,
		ProjectID:    project.ID,
		PMID:         pm.ID,
		ContractorID: contractor.ID,
		Currency:     "eur",
		TaxRate:      0,
		Lines: []domainagg.InvoiceLineInput{
			{Description: "Phase 1 completion", Quantity: 1, UnitCost: 2500},
		},
	})
	if err != nil {
		t.Fatalf("IssuePMInvoice: %v", err)
	}
	if want := fmt.Sprintf("INV-%d-0004", year); second.InvoiceNumber != want {
		t.Fatalf("second number: want=%s got=%s", want, second.InvoiceNumber)
	}

	pmRows, err := env.pm.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{second.InvoiceID})
	if err != nil || len(pmRows) != 1 {
		t.Fatalf("reload pm invoice: rows=%d err=%v", len(pmRows), err)
	}
	if pmRows[0].Currency != "EUR" {
		t.Fatalf("currency: want=EUR got=%s", pmRows[0].Currency)
	}
	if pmRows[0].Total != 2500 {
		t.Fatalf("pm total: want=2500 got=%v", pmRows[0].Total)
	}
}

func TestInvoicesAggregateIssueValidation(t *testing.T) {
	env := newInvoicesTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "inv-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	contractor := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleContractor)

	cases := []struct {
		name  string
		lines []domainagg.InvoiceLineInput
	}{
		{name: "empty lines", lines: nil},
		{name: "zero quantity", lines: []domainagg.InvoiceLineInput{{Description: "x", Quantity: 0, UnitCost: 10}}},
		{name: "negative unit cost", lines: []domainagg.InvoiceLineInput{{Description: "x", Quantity: 1, UnitCost: -1}}},
		{name: "blank description", lines: []domainagg.InvoiceLineInput{{Description: "  ", Quantity: 1, UnitCost: 10}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.agg.IssueContractorInvoice(ctx, domainagg.IssueContractorInvoiceInput{
				OrgID:        org.ID,
				ActorID:      pm.ID,
				ContractorID: contractor.ID,
				Lines:        tc.lines,
			})
			if err == nil || !domainagg.IsCode(err, domainagg.CodeValidation) {
				t.Fatalf("expected validation error, got: %v", err)
			}
		})
	}
}

func TestInvoicesAggregatePMApprovalFlow(t *testing.T) {
	env := newInvoicesTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "inv-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	contractor := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleContractor)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)

	issued, err := env.agg.IssuePMInvoice(ctx, domainagg.IssuePMInvoiceInput{
		OrgID:        org.ID,
		ActorID:      pm.ID,
		ProjectID:    project.ID,
		PMID:         pm.ID,
		ContractorID: contractor.ID,
		Lines: []domainagg.InvoiceLineInput{
			{Description: "Roof repair milestone", Quantity: 1, UnitCost: 1800},
		},
	})
	if err != nil {
		t.Fatalf("IssuePMInvoice: %v", err)
	}

	sent, err := env.agg.SendPMInvoice(ctx, domainagg.PMInvoiceTransitionInput{
		OrgID:     org.ID,
		InvoiceID: issued.InvoiceID,
		ActorID:   pm.ID,
	})
	if err != nil {
		t.Fatalf("SendPMInvoice: %v", err)
	}
	if sent.Status != types.PMInvoiceStatusSentToPM {
		t.Fatalf("sent status: want=%s got=%s", types.PMInvoiceStatusSentToPM, sent.Status)
	}

	// Only the assigned PM may decide.
	_, err = env.agg.DecidePMInvoice(ctx, domainagg.DecidePMInvoiceInput{
		OrgID:     org.ID,
		InvoiceID: issued.InvoiceID,
		ActorID:   contractor.ID,
		Approve:   true,
	})
	if err == nil || !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition failure for non-PM actor, got: %v", err)
	}

	decided, err := env.agg.DecidePMInvoice(ctx, domainagg.DecidePMInvoiceInput{
		OrgID:     org.ID,
		InvoiceID: issued.InvoiceID,
		ActorID:   pm.ID,
		Approve:   true,
	})
	if err != nil {
		t.Fatalf("DecidePMInvoice: %v", err)
	}
	if decided.Status != types.PMInvoiceStatusPMApproved {
		t.Fatalf("decided status: want=%s got=%s", types.PMInvoiceStatusPMApproved, decided.Status)
	}

	_, err = env.agg.DecidePMInvoice(ctx, domainagg.DecidePMInvoiceInput{
		OrgID:        org.ID,
		InvoiceID:    issued.InvoiceID,
		ActorID:      pm.ID,
		Approve:      false,
		RejectReason: "already approved",
	})
	if err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict on second decision, got: %v", err)
	}

	paid, err := env.agg.MarkPMInvoicePaid(ctx, domainagg.PMInvoiceTransitionInput{
		OrgID:     org.ID,
		InvoiceID: issued.InvoiceID,
		ActorID:   pm.ID,
	})
	if err != nil {
		t.Fatalf("MarkPMInvoicePaid: %v", err)
	}
	if paid.Status != types.PMInvoiceStatusPaid {
		t.Fatalf("paid status: want=%s got=%s", types.PMInvoiceStatusPaid, paid.Status)
	}

	rows, err := env.pm.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{issued.InvoiceID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload pm invoice: rows=%d err=%v", len(rows), err)
	}
	if rows[0].SentToPMAt == nil || rows[0].DecidedAt == nil || rows[0].PaidAt == nil {
		t.Fatalf("expected transition timestamps: sent=%v decided=%v paid=%v",
			rows[0].SentToPMAt, rows[0].DecidedAt, rows[0].PaidAt)
	}
}

func TestInvoicesAggregateDecideRejectStoresReason(t *testing.T) {
	env := newInvoicesTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "inv-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	contractor := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleContractor)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)

	issued, err := env.agg.IssuePMInvoice(ctx, domainagg.IssuePMInvoiceInput{
		OrgID:        org.ID,
		ActorID:      pm.ID,
		ProjectID:    project.ID,
		PMID:         pm.ID,
		ContractorID: contractor.ID,
		Lines:        []domainagg.InvoiceLineInput{{Description: "Disputed work", Quantity: 1, UnitCost: 700}},
	})
	if err != nil {
		t.Fatalf("IssuePMInvoice: %v", err)
	}
	if _, err := env.agg.SendPMInvoice(ctx, domainagg.PMInvoiceTransitionInput{
		OrgID:     org.ID,
		InvoiceID: issued.InvoiceID,
		ActorID:   pm.ID,
	}); err != nil {
		t.Fatalf("SendPMInvoice: %v", err)
	}

	_, err = env.agg.DecidePMInvoice(ctx, domainagg.DecidePMInvoiceInput{
		OrgID:     org.ID,
		InvoiceID: issued.InvoiceID,
		ActorID:   pm.ID,
		Approve:   false,
	})
	if err == nil || !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation for missing reason, got: %v", err)
	}

	decided, err := env.agg.DecidePMInvoice(ctx, domainagg.DecidePMInvoiceInput{
		OrgID:        org.ID,
		InvoiceID:    issued.InvoiceID,
		ActorID:      pm.ID,
		Approve:      false,
		RejectReason: "scope not delivered",
	})
	if err != nil {
		t.Fatalf("DecidePMInvoice reject: %v", err)
	}
	if decided.Status != types.PMInvoiceStatusPMRejected {
		t.Fatalf("status: want=%s got=%s", types.PMInvoiceStatusPMRejected, decided.Status)
	}

	rows, err := env.pm.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{issued.InvoiceID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload pm invoice: rows=%d err=%v", len(rows), err)
	}
	if rows[0].RejectReason != "scope not delivered" {
		t.Fatalf("reject reason: got=%q", rows[0].RejectReason)
	}
}

func TestInvoicesAggregateContractorLifecycle(t *testing.T) {
	env := newInvoicesTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "inv-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	contractor := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleContractor)

	issued, err := env.agg.IssueContractorInvoice(ctx, domainagg.IssueContractorInvoiceInput{
		OrgID:        org.ID,
		ActorID:      pm.ID,
		ContractorID: contractor.ID,
		Lines:        []domainagg.InvoiceLineInput{{Description: "Window replacement", Quantity: 4, UnitCost: 220}},
	})
	if err != nil {
		t.Fatalf("IssueContractorInvoice: %v", err)
	}

	transition := func(to string) (domainagg.ContractorInvoiceTransitionResult, error) {
		return env.agg.TransitionContractorInvoice(ctx, domainagg.ContractorInvoiceTransitionInput{
			OrgID:     org.ID,
			InvoiceID: issued.InvoiceID,
			ActorID:   pm.ID,
			ToStatus:  to,
		})
	}

	if _, err := transition("ARCHIVED"); err == nil || !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation for unknown target, got: %v", err)
	}

	sent, err := transition(types.ContractorInvoiceStatusSent)
	if err != nil {
		t.Fatalf("transition to SENT: %v", err)
	}
	if sent.Status != types.ContractorInvoiceStatusSent {
		t.Fatalf("status: want=%s got=%s", types.ContractorInvoiceStatusSent, sent.Status)
	}

	if _, err := transition(types.ContractorInvoiceStatusSent); err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict resending, got: %v", err)
	}

	if _, err := transition(types.ContractorInvoiceStatusPaid); err != nil {
		t.Fatalf("transition to PAID: %v", err)
	}
	if _, err := transition(types.ContractorInvoiceStatusVoid); err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict voiding a paid invoice, got: %v", err)
	}

	rows, err := env.contractor.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{issued.InvoiceID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload invoice: rows=%d err=%v", len(rows), err)
	}
	if rows[0].SentAt == nil || rows[0].PaidAt == nil {
		t.Fatalf("expected sent_at and paid_at: sent=%v paid=%v", rows[0].SentAt, rows[0].PaidAt)
	}

	voidable, err := env.agg.IssueContractorInvoice(ctx, domainagg.IssueContractorInvoiceInput{
		OrgID:        org.ID,
		ActorID:      pm.ID,
		ContractorID: contractor.ID,
		Lines:        []domainagg.InvoiceLineInput{{Description: "Cancelled call-out", Quantity: 1, UnitCost: 80}},
	})
	if err != nil {
		t.Fatalf("issue second invoice: %v", err)
	}
	res, err := env.agg.TransitionContractorInvoice(ctx, domainagg.ContractorInvoiceTransitionInput{
		OrgID:     org.ID,
		InvoiceID: voidable.InvoiceID,
		ActorID:   pm.ID,
		ToStatus:  types.ContractorInvoiceStatusVoid,
	})
	if err != nil {
		t.Fatalf("void draft: %v", err)
	}
	if res.Status != types.ContractorInvoiceStatusVoid {
		t.Fatalf("void status: got=%s", res.Status)
	}
}
