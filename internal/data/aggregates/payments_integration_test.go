package aggregates

import (
	"context"
	"sync"
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

type paymentsTestEnv struct {
	tx       *gorm.DB
	agg      domainagg.PaymentsAggregate
	requests repos.PaymentRequestRepo
	payslips repos.PayslipRepo
}

func newPaymentsTestEnv(t *testing.T) *paymentsTestEnv {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	return newPaymentsTestEnvOn(t, tx)
}

func newPaymentsTestEnvOn(t *testing.T, tx *gorm.DB) *paymentsTestEnv {
	t.Helper()
	log := repotest.Logger(t)
	env := &paymentsTestEnv{
		tx:       tx,
		requests: repos.NewPaymentRequestRepo(tx, log),
		payslips: repos.NewPayslipRepo(tx, log),
	}
	env.agg = NewPaymentsAggregate(PaymentsAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Requests: env.requests,
		Payslips: env.payslips,
		Orgs:     repos.NewOrganizationRepo(tx, log),
	})
	return env
}

func TestPaymentsAggregateApproveThenMarkPaid(t *testing.T) {
	env := newPaymentsTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "pay-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	artisan := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleArtisan)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)
	pr := repotest.SeedPaymentRequest(t, ctx, env.tx, org.ID, project.ID, artisan.ID, 1000)

	decided, err := env.agg.DecidePaymentRequest(ctx, domainagg.DecidePaymentInput{
		OrgID:            org.ID,
		PaymentRequestID: pr.ID,
		ReviewerID:       pm.ID,
		Approve:          true,
	})
	if err != nil {
		t.Fatalf("DecidePaymentRequest: %v", err)
	}
	if decided.Status != types.PaymentStatusApproved {
		t.Fatalf("decided status: want=%s got=%s", types.PaymentStatusApproved, decided.Status)
	}

	periodEnd := time.Now().UTC().Truncate(24 * time.Hour)
	periodStart := periodEnd.AddDate(0, 0, -7)
	paid, err := env.agg.MarkPaymentRequestPaid(ctx, domainagg.MarkPaymentPaidInput{
		OrgID:            org.ID,
		PaymentRequestID: pr.ID,
		ActorID:          pm.ID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
	})
	if err != nil {
		t.Fatalf("MarkPaymentRequestPaid: %v", err)
	}

	// Seeded org carries a 5% deduction rate.
	if paid.Gross != 1000 || paid.Deductions != 50 || paid.Net != 950 {
		t.Fatalf("payout math: gross=%v deductions=%v net=%v", paid.Gross, paid.Deductions, paid.Net)
	}
	if paid.Reference == "" {
		t.Fatalf("expected payslip reference")
	}

	dbc := dbctx.Context{Ctx: ctx}
	slips, err := env.payslips.GetByPaymentRequestIDs(dbc, []uuid.UUID{pr.ID})
	if err != nil || len(slips) != 1 {
		t.Fatalf("payslips: rows=%d err=%v", len(slips), err)
	}
	if slips[0].Net != 950 {
		t.Fatalf("payslip net: want=950 got=%v", slips[0].Net)
	}
	if slips[0].ArtisanID != artisan.ID {
		t.Fatalf("payslip artisan: want=%s got=%s", artisan.ID, slips[0].ArtisanID)
	}

	rows, err := env.requests.GetByIDs(dbc, []uuid.UUID{pr.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload request: rows=%d err=%v", len(rows), err)
	}
	if rows[0].Status != types.PaymentStatusPaid {
		t.Fatalf("request status: want=%s got=%s", types.PaymentStatusPaid, rows[0].Status)
	}
	if rows[0].PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
}

func TestPaymentsAggregateRejectRequiresReason(t *testing.T) {
	env := newPaymentsTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "pay-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	artisan := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleArtisan)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)
	pr := repotest.SeedPaymentRequest(t, ctx, env.tx, org.ID, project.ID, artisan.ID, 400)

	_, err := env.agg.DecidePaymentRequest(ctx, domainagg.DecidePaymentInput{
		OrgID:            org.ID,
		PaymentRequestID: pr.ID,
		ReviewerID:       pm.ID,
		Approve:          false,
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got: %v", err)
	}

	res, err := env.agg.DecidePaymentRequest(ctx, domainagg.DecidePaymentInput{
		OrgID:            org.ID,
		PaymentRequestID: pr.ID,
		ReviewerID:       pm.ID,
		Approve:          false,
		RejectReason:     "duplicate request",
	})
	if err != nil {
		t.Fatalf("reject with reason: %v", err)
	}
	if res.Status != types.PaymentStatusRejected {
		t.Fatalf("status: want=%s got=%s", types.PaymentStatusRejected, res.Status)
	}
}

func TestPaymentsAggregateMarkPaidRequiresApproved(t *testing.T) {
	env := newPaymentsTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "pay-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	artisan := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleArtisan)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)
	pr := repotest.SeedPaymentRequest(t, ctx, env.tx, org.ID, project.ID, artisan.ID, 400)

	periodEnd := time.Now().UTC().Truncate(24 * time.Hour)
	_, err := env.agg.MarkPaymentRequestPaid(ctx, domainagg.MarkPaymentPaidInput{
		OrgID:            org.ID,
		PaymentRequestID: pr.ID,
		ActorID:          pm.ID,
		PeriodStart:      periodEnd.AddDate(0, 0, -7),
		PeriodEnd:        periodEnd,
	})
	if err == nil {
		t.Fatalf("expected conflict for unapproved request")
	}
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got: %v", err)
	}
}

func TestPaymentsAggregateConcurrentDecisionConflict(t *testing.T) {
	db := repotest.DB(t)
	env := newPaymentsTestEnvOn(t, db)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, db, "pay-cc-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, db, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	artisan := repotest.SeedUser(t, ctx, db, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleArtisan)
	project := repotest.SeedProject(t, ctx, db, org.ID, pm.ID)
	pr := repotest.SeedPaymentRequest(t, ctx, db, org.ID, project.ID, artisan.ID, 750)
	t.Cleanup(func() {
		_ = db.WithContext(ctx).Where("id = ?", pr.ID).Delete(&types.PaymentRequest{}).Error
		_ = db.WithContext(ctx).Where("id = ?", project.ID).Delete(&types.Project{}).Error
		_ = db.WithContext(ctx).Where("id IN ?", []uuid.UUID{pm.ID, artisan.ID}).Delete(&types.User{}).Error
		_ = db.WithContext(ctx).Where("id = ?", org.ID).Delete(&types.Organization{}).Error
	})

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		<-start
		_, err := env.agg.DecidePaymentRequest(ctx, domainagg.DecidePaymentInput{
			OrgID:            org.ID,
			PaymentRequestID: pr.ID,
			ReviewerID:       pm.ID,
			Approve:          true,
		})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		<-start
		_, err := env.agg.DecidePaymentRequest(ctx, domainagg.DecidePaymentInput{
			OrgID:            org.ID,
			PaymentRequestID: pr.ID,
			ReviewerID:       pm.ID,
			Approve:          false,
			RejectReason:     "raised against the wrong project",
		})
		errs <- err
	}()

	close(start)
	wg.Wait()
	close(errs)

	var successCount, conflictCount int
	for err := range errs {
		if err == nil {
			successCount++
			continue
		}
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			conflictCount++
			continue
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if successCount != 1 {
		t.Fatalf("success count: want=1 got=%d", successCount)
	}
	if conflictCount != 1 {
		t.Fatalf("conflict count: want=1 got=%d", conflictCount)
	}
}
