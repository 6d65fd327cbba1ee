package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
)

func SeedOrg(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string) *types.Organization {
	tb.Helper()
	o := &types.Organization{
		ID:            uuid.New(),
		Name:          "org " + slug,
		Slug:          slug,
		DeductionRate: 0.05,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed org: %v", err)
	}
	return o
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		OrgID:     orgID,
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedLead(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, createdBy uuid.UUID) *types.Lead {
	tb.Helper()
	l := &types.Lead{
		ID:          uuid.New(),
		OrgID:       orgID,
		ContactName: "contact",
		Status:      types.LeadStatusNew,
		CreatedBy:   createdBy,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lead: %v", err)
	}
	return l
}

func SeedArtisanProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID, specialty string) *types.ArtisanProfile {
	tb.Helper()
	p := &types.ArtisanProfile{
		ID:        uuid.New(),
		OrgID:     orgID,
		UserID:    userID,
		Specialty: specialty,
		DailyRate: 100,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed artisan profile: %v", err)
	}
	return p
}

func SeedRFQ(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, raisedBy uuid.UUID) *types.RFQ {
	tb.Helper()
	r := &types.RFQ{
		ID:       uuid.New(),
		OrgID:    orgID,
		Title:    "rfq",
		Status:   types.RFQStatusOpen,
		RaisedBy: raisedBy,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rfq: %v", err)
	}
	return r
}

func SeedQuotation(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, rfqID, contractorID uuid.UUID, status string) *types.Quotation {
	tb.Helper()
	q := &types.Quotation{
		ID:           uuid.New(),
		OrgID:        orgID,
		RFQID:        rfqID,
		ContractorID: contractorID,
		QuoteNumber:  fmt.Sprintf("Q-%s", uuid.NewString()[:8]),
		Currency:     "USD",
		Subtotal:     100,
		Tax:          0,
		Total:        100,
		Status:       status,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quotation: %v", err)
	}
	return q
}

func SeedWorkOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, pmID uuid.UUID, number string) *types.WorkOrder {
	tb.Helper()
	w := &types.WorkOrder{
		ID:          uuid.New(),
		OrgID:       orgID,
		OrderNumber: number,
		Title:       "order",
		PMID:        pmID,
		Currency:    "USD",
		Status:      types.OrderStatusPending,
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed work order: %v", err)
	}
	return w
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, pmID uuid.UUID) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:            uuid.New(),
		OrgID:         orgID,
		Name:          "project",
		PMID:          pmID,
		Status:        types.ProjectStatusActive,
		ContractValue: 10000,
		BudgetTotal:   8000,
		Currency:      "USD",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedMilestone(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, budgeted float64) *types.Milestone {
	tb.Helper()
	m := &types.Milestone{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Name:         "milestone",
		Status:       types.MilestoneStatusInProgress,
		BudgetedCost: budgeted,
		WeightPct:    50,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed milestone: %v", err)
	}
	return m
}

func SeedPaymentRequest(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, projectID, artisanID uuid.UUID, amount float64) *types.PaymentRequest {
	tb.Helper()
	pr := &types.PaymentRequest{
		ID:        uuid.New(),
		OrgID:     orgID,
		ProjectID: projectID,
		ArtisanID: artisanID,
		Amount:    amount,
		Currency:  "USD",
		Status:    types.PaymentStatusPending,
	}
	if err := tx.WithContext(ctx).Create(pr).Error; err != nil {
		tb.Fatalf("seed payment request: %v", err)
	}
	return pr
}

func SeedContractorInvoice(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, contractorID, createdBy uuid.UUID, number string) *types.ContractorInvoice {
	tb.Helper()
	inv := &types.ContractorInvoice{
		ID:            uuid.New(),
		OrgID:         orgID,
		InvoiceNumber: number,
		ContractorID:  contractorID,
		Status:        types.ContractorInvoiceStatusDraft,
		Currency:      "USD",
		Amount:        100,
		Total:         100,
		Lines:         datatypes.JSON([]byte("[]")),
		CreatedBy:     createdBy,
	}
	if err := tx.WithContext(ctx).Create(inv).Error; err != nil {
		tb.Fatalf("seed contractor invoice: %v", err)
	}
	return inv
}

func SeedPMInvoice(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, projectID, pmID, contractorID, createdBy uuid.UUID, number string) *types.PropertyManagerInvoice {
	tb.Helper()
	inv := &types.PropertyManagerInvoice{
		ID:            uuid.New(),
		OrgID:         orgID,
		InvoiceNumber: number,
		ProjectID:     projectID,
		PMID:          pmID,
		ContractorID:  contractorID,
		Status:        types.PMInvoiceStatusDraft,
		Currency:      "USD",
		Amount:        100,
		Total:         100,
		Lines:         datatypes.JSON([]byte("[]")),
		CreatedBy:     createdBy,
	}
	if err := tx.WithContext(ctx).Create(inv).Error; err != nil {
		tb.Fatalf("seed pm invoice: %v", err)
	}
	return inv
}

func SeedSubscription(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, planCode, status string) *types.Subscription {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.Subscription{
		ID:          uuid.New(),
		OrgID:       orgID,
		PlanCode:    planCode,
		Status:      status,
		Seats:       5,
		PeriodStart: now.AddDate(0, -1, 0),
		PeriodEnd:   now.AddDate(0, 0, -1),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subscription: %v", err)
	}
	return s
}

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, createdBy uuid.UUID) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{
		ID:        uuid.New(),
		OrgID:     orgID,
		Topic:     "topic",
		CreatedBy: createdBy,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
