package aggregates

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	repotest "github.com/propflow/propflow-backend/internal/data/repos/testutil"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

type ordersTestEnv struct {
	tx     *gorm.DB
	agg    domainagg.OrdersAggregate
	leads  repos.LeadRepo
	rfqs   repos.RFQRepo
	quotes repos.QuotationRepo
	orders repos.WorkOrderRepo
}

func newOrdersTestEnv(t *testing.T) *ordersTestEnv {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)

	env := &ordersTestEnv{
		tx:     tx,
		leads:  repos.NewLeadRepo(tx, log),
		rfqs:   repos.NewRFQRepo(tx, log),
		quotes: repos.NewQuotationRepo(tx, log),
		orders: repos.NewWorkOrderRepo(tx, log),
	}
	env.agg = NewOrdersAggregate(OrdersAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Leads:      env.leads,
		RFQs:       env.rfqs,
		Quotations: env.quotes,
		WorkOrders: env.orders,
	})
	return env
}

func TestOrdersAggregateConvertLeadHappyPath(t *testing.T) {
	env := newOrdersTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "orders-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	lead := repotest.SeedLead(t, ctx, env.tx, org.ID, pm.ID)

	res, err := env.agg.ConvertLeadToRFQ(ctx, domainagg.ConvertLeadInput{
		OrgID:   org.ID,
		LeadID:  lead.ID,
		ActorID: pm.ID,
		Title:   "Fix lobby HVAC",
	})
	if err != nil {
		t.Fatalf("ConvertLeadToRFQ: %v", err)
	}
	if res.RFQID == uuid.Nil {
		t.Fatalf("expected rfq id")
	}

	dbc := dbctx.Context{Ctx: ctx}
	rows, err := env.leads.GetByIDs(dbc, []uuid.UUID{lead.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload lead: rows=%d err=%v", len(rows), err)
	}
	if rows[0].Status != types.LeadStatusConverted {
		t.Fatalf("lead status: want=%s got=%s", types.LeadStatusConverted, rows[0].Status)
	}
	if rows[0].ConvertedRFQID == nil || *rows[0].ConvertedRFQID != res.RFQID {
		t.Fatalf("lead converted_rfq_id: want=%s got=%v", res.RFQID, rows[0].ConvertedRFQID)
	}

	rfqRows, err := env.rfqs.GetByIDs(dbc, []uuid.UUID{res.RFQID})
	if err != nil || len(rfqRows) != 1 {
		t.Fatalf("reload rfq: rows=%d err=%v", len(rfqRows), err)
	}
	if rfqRows[0].Status != types.RFQStatusOpen {
		t.Fatalf("rfq status: want=%s got=%s", types.RFQStatusOpen, rfqRows[0].Status)
	}
	if rfqRows[0].Title != "Fix lobby HVAC" {
		t.Fatalf("rfq title: got=%q", rfqRows[0].Title)
	}
}

func TestOrdersAggregateConvertLeadTwiceConflicts(t *testing.T) {
	env := newOrdersTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "orders-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	lead := repotest.SeedLead(t, ctx, env.tx, org.ID, pm.ID)

	in := domainagg.ConvertLeadInput{
		OrgID:   org.ID,
		LeadID:  lead.ID,
		ActorID: pm.ID,
		Title:   "Repaint stairwell",
	}
	if _, err := env.agg.ConvertLeadToRFQ(ctx, in); err != nil {
		t.Fatalf("first convert: %v", err)
	}
	_, err := env.agg.ConvertLeadToRFQ(ctx, in)
	if err == nil {
		t.Fatalf("expected conflict on second convert")
	}
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got: %v", err)
	}
}

func TestOrdersAggregateConvertLeadWrongOrgNotFound(t *testing.T) {
	env := newOrdersTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "orders-"+uuid.NewString()[:8])
	other := repotest.SeedOrg(t, ctx, env.tx, "orders-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	lead := repotest.SeedLead(t, ctx, env.tx, org.ID, pm.ID)

	_, err := env.agg.ConvertLeadToRFQ(ctx, domainagg.ConvertLeadInput{
		OrgID:   other.ID,
		LeadID:  lead.ID,
		ActorID: pm.ID,
		Title:   "Cross-org lookup",
	})
	if err == nil {
		t.Fatalf("expected not found")
	}
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got: %v", err)
	}
}

func TestOrdersAggregateAcceptQuotationRejectsSiblings(t *testing.T) {
	env := newOrdersTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "orders-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	rfq := repotest.SeedRFQ(t, ctx, env.tx, org.ID, pm.ID)

	var quoteIDs [3]uuid.UUID
	for i := range quoteIDs {
		c := repotest.SeedUser(t, ctx, env.tx, org.ID, fmt.Sprintf("c%d-%s@test.dev", i, uuid.NewString()[:8]), types.RoleContractor)
		q := repotest.SeedQuotation(t, ctx, env.tx, org.ID, rfq.ID, c.ID, types.QuotationStatusSubmitted)
		quoteIDs[i] = q.ID
	}

	res, err := env.agg.AcceptQuotation(ctx, domainagg.AcceptQuotationInput{
		OrgID:       org.ID,
		QuotationID: quoteIDs[0],
		ActorID:     pm.ID,
	})
	if err != nil {
		t.Fatalf("AcceptQuotation: %v", err)
	}
	if res.RejectedSiblings != 2 {
		t.Fatalf("rejected siblings: want=2 got=%d", res.RejectedSiblings)
	}

	rows, err := env.quotes.GetByIDs(dbctx.Context{Ctx: ctx}, quoteIDs[:])
	if err != nil || len(rows) != 3 {
		t.Fatalf("reload quotations: rows=%d err=%v", len(rows), err)
	}
	for _, q := range rows {
		want := types.QuotationStatusRejected
		if q.ID == quoteIDs[0] {
			want = types.QuotationStatusAccepted
		}
		if q.Status != want {
			t.Fatalf("quotation %s status: want=%s got=%s", q.ID, want, q.Status)
		}
	}
}

func TestOrdersAggregateConvertRFQRequiresAcceptedQuotation(t *testing.T) {
	env := newOrdersTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "orders-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	contractor := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleContractor)
	rfq := repotest.SeedRFQ(t, ctx, env.tx, org.ID, pm.ID)
	q := repotest.SeedQuotation(t, ctx, env.tx, org.ID, rfq.ID, contractor.ID, types.QuotationStatusSubmitted)

	_, err := env.agg.ConvertRFQToOrder(ctx, domainagg.ConvertRFQInput{
		OrgID:       org.ID,
		RFQID:       rfq.ID,
		QuotationID: q.ID,
		ActorID:     pm.ID,
	})
	if err == nil {
		t.Fatalf("expected invariant violation")
	}
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant violation code, got: %v", err)
	}
}

func TestOrdersAggregateConvertRFQCreatesOrder(t *testing.T) {
	env := newOrdersTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "orders-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	contractor := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RoleContractor)
	rfq := repotest.SeedRFQ(t, ctx, env.tx, org.ID, pm.ID)
	q := repotest.SeedQuotation(t, ctx, env.tx, org.ID, rfq.ID, contractor.ID, types.QuotationStatusAccepted)

	res, err := env.agg.ConvertRFQToOrder(ctx, domainagg.ConvertRFQInput{
		OrgID:       org.ID,
		RFQID:       rfq.ID,
		QuotationID: q.ID,
		ActorID:     pm.ID,
	})
	if err != nil {
		t.Fatalf("ConvertRFQToOrder: %v", err)
	}
	if res.OrderNumber != "WO-0001" {
		t.Fatalf("order number: want=WO-0001 got=%s", res.OrderNumber)
	}

	dbc := dbctx.Context{Ctx: ctx}
	orders, err := env.orders.GetByIDs(dbc, []uuid.UUID{res.OrderID})
	if err != nil || len(orders) != 1 {
		t.Fatalf("reload order: rows=%d err=%v", len(orders), err)
	}
	if orders[0].Amount != q.Total {
		t.Fatalf("order amount: want=%v got=%v", q.Total, orders[0].Amount)
	}
	if orders[0].ContractorID == nil || *orders[0].ContractorID != contractor.ID {
		t.Fatalf("order contractor: got=%v", orders[0].ContractorID)
	}

	rfqRows, err := env.rfqs.GetByIDs(dbc, []uuid.UUID{rfq.ID})
	if err != nil || len(rfqRows) != 1 {
		t.Fatalf("reload rfq: rows=%d err=%v", len(rfqRows), err)
	}
	if rfqRows[0].Status != types.RFQStatusConverted {
		t.Fatalf("rfq status: want=%s got=%s", types.RFQStatusConverted, rfqRows[0].Status)
	}
	if rfqRows[0].ConvertedOrderID == nil || *rfqRows[0].ConvertedOrderID != res.OrderID {
		t.Fatalf("rfq converted_order_id: got=%v", rfqRows[0].ConvertedOrderID)
	}

	_, err = env.agg.ConvertRFQToOrder(ctx, domainagg.ConvertRFQInput{
		OrgID:       org.ID,
		RFQID:       rfq.ID,
		QuotationID: q.ID,
		ActorID:     pm.ID,
	})
	if err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict on reconvert, got: %v", err)
	}
}
