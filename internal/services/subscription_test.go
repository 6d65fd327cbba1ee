package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/billing"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

func TestSweepTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grace := 14 * 24 * time.Hour

	sub := func(status string, periodEnd time.Time, cancelAtEnd bool) *types.Subscription {
		return &types.Subscription{Status: status, PeriodEnd: periodEnd, CancelAtPeriodEnd: cancelAtEnd}
	}

	cases := []struct {
		name        string
		sub         *types.Subscription
		wantStatus  string
		wantChanged bool
	}{
		{
			name:        "nil subscription is ignored",
			sub:         nil,
			wantChanged: false,
		},
		{
			name:        "period still running is only stamped",
			sub:         sub(types.SubscriptionStatusActive, now.Add(time.Hour), false),
			wantChanged: false,
		},
		{
			name:        "expired trial lapses",
			sub:         sub(types.SubscriptionStatusTrialing, now.Add(-time.Hour), false),
			wantStatus:  types.SubscriptionStatusExpired,
			wantChanged: true,
		},
		{
			name:        "active past end enters grace",
			sub:         sub(types.SubscriptionStatusActive, now.Add(-time.Hour), false),
			wantStatus:  types.SubscriptionStatusPastDue,
			wantChanged: true,
		},
		{
			name:        "active with pending cancellation is cancelled",
			sub:         sub(types.SubscriptionStatusActive, now.Add(-time.Hour), true),
			wantStatus:  types.SubscriptionStatusCancelled,
			wantChanged: true,
		},
		{
			name:        "past due inside grace holds",
			sub:         sub(types.SubscriptionStatusPastDue, now.Add(-7*24*time.Hour), false),
			wantChanged: false,
		},
		{
			name:        "past due beyond grace expires",
			sub:         sub(types.SubscriptionStatusPastDue, now.Add(-15*24*time.Hour), false),
			wantStatus:  types.SubscriptionStatusExpired,
			wantChanged: true,
		},
		{
			name:        "terminal states never move",
			sub:         sub(types.SubscriptionStatusExpired, now.Add(-30*24*time.Hour), false),
			wantChanged: false,
		},
		{
			name:        "cancelled stays cancelled",
			sub:         sub(types.SubscriptionStatusCancelled, now.Add(-30*24*time.Hour), true),
			wantChanged: false,
		},
	}

	for _, tc := range cases {
		status, changed := sweepTransition(tc.sub, now, grace)
		if changed != tc.wantChanged {
			t.Errorf("%s: changed=%v want %v", tc.name, changed, tc.wantChanged)
			continue
		}
		if changed && status != tc.wantStatus {
			t.Errorf("%s: status=%q want %q", tc.name, status, tc.wantStatus)
		}
	}
}

func TestSweepTransitionGraceBoundary(t *testing.T) {
	grace := 14 * 24 * time.Hour
	periodEnd := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	row := &types.Subscription{Status: types.SubscriptionStatusPastDue, PeriodEnd: periodEnd}

	// Exactly at the grace boundary the row holds; one second later it expires.
	atBoundary := periodEnd.Add(grace)
	if _, changed := sweepTransition(row, atBoundary, grace); changed {
		t.Fatal("row at the exact grace boundary should hold")
	}
	if status, changed := sweepTransition(row, atBoundary.Add(time.Second), grace); !changed || status != types.SubscriptionStatusExpired {
		t.Fatalf("row past the grace boundary should expire, got %q changed=%v", status, changed)
	}
}

const seatTestCatalogYAML = `
currency: USD
plans:
  - code: starter
    name: Starter
    monthly_price: 0
    max_seats: 2
    default: true
  - code: growth
    name: Growth
    monthly_price: 49
    max_seats: 10
`

type stubSubscriptionRepo struct {
	sub *types.Subscription
}

func (r *stubSubscriptionRepo) Create(dbc dbctx.Context, subs []*types.Subscription) ([]*types.Subscription, error) {
	return subs, nil
}
func (r *stubSubscriptionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Subscription, error) {
	return nil, nil
}
func (r *stubSubscriptionRepo) GetByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Subscription, error) {
	return r.sub, nil
}
func (r *stubSubscriptionRepo) LockByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Subscription, error) {
	return r.sub, nil
}
func (r *stubSubscriptionRepo) ListDueForSweep(dbc dbctx.Context, asOf time.Time, limit int) ([]*types.Subscription, error) {
	return nil, nil
}
func (r *stubSubscriptionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type stubUserRepo struct {
	count int64
}

func (r *stubUserRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	return users, nil
}
func (r *stubUserRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	return nil, nil
}
func (r *stubUserRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	return nil, nil
}
func (r *stubUserRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) { return false, nil }
func (r *stubUserRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, role string, limit int) ([]*types.User, error) {
	return nil, nil
}
func (r *stubUserRepo) CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error) {
	return r.count, nil
}
func (r *stubUserRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}
func (r *stubUserRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error { return nil }

func seatTestService(t *testing.T, sub *types.Subscription, members int64) SubscriptionService {
	t.Helper()
	log, err := logger.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cat, err := billing.ParseCatalog([]byte(seatTestCatalogYAML))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return NewSubscriptionService(log, SubscriptionServiceDeps{
		Subscriptions: &stubSubscriptionRepo{sub: sub},
		Users:         &stubUserRepo{count: members},
		Catalog:       cat,
	})
}

func TestSubscriptionViewResolvesPlan(t *testing.T) {
	orgID := uuid.New()
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: uuid.New(),
		OrgID:  orgID,
		Role:   types.RoleAdmin,
	})

	svc := seatTestService(t, &types.Subscription{
		ID:       uuid.New(),
		OrgID:    orgID,
		PlanCode: "starter",
		Status:   types.SubscriptionStatusActive,
	}, 1)
	view, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Plan == nil || view.Plan.Code != "starter" {
		t.Fatalf("plan not resolved: %+v", view.Plan)
	}

	// A subscription pointing at a code the catalog no longer ships still
	// renders; only the plan detail is absent.
	svc = seatTestService(t, &types.Subscription{
		ID:       uuid.New(),
		OrgID:    orgID,
		PlanCode: "legacy",
		Status:   types.SubscriptionStatusActive,
	}, 1)
	view, err = svc.Get(ctx)
	if err != nil {
		t.Fatalf("get with unknown plan: %v", err)
	}
	if view.Plan != nil {
		t.Fatalf("unknown plan code must leave Plan empty, got %+v", view.Plan)
	}
}

func TestEnsureSeatAvailable(t *testing.T) {
	orgID := uuid.New()
	sub := &types.Subscription{
		ID:       uuid.New(),
		OrgID:    orgID,
		PlanCode: "starter",
		Status:   types.SubscriptionStatusActive,
	}

	if err := seatTestService(t, sub, 1).EnsureSeatAvailable(context.Background(), orgID); err != nil {
		t.Fatalf("seat below cap rejected: %v", err)
	}

	err := seatTestService(t, sub, 2).EnsureSeatAvailable(context.Background(), orgID)
	if err == nil {
		t.Fatal("seat at cap must be rejected")
	}
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("want forbidden apierr, got %v", err)
	}
	if !strings.Contains(err.Error(), "Growth") {
		t.Fatalf("rejection should suggest the Growth upgrade, got %q", err.Error())
	}
}
