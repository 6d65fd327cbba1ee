package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/billing"
	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/envutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type SubscriptionView struct {
	Subscription *types.Subscription `json:"subscription"`
	Plan         *billing.Plan       `json:"plan,omitempty"`
}

type SweepResult struct {
	Scanned       int `json:"scanned"`
	MarkedPastDue int `json:"marked_past_due"`
	Cancelled     int `json:"cancelled"`
	Expired       int `json:"expired"`
}

// SubscriptionService owns the org's billing state machine: plan changes,
// cancellation, seat enforcement, and the renewal sweep. There is no
// payment gateway; ACTIVE subscriptions fall to PAST_DUE at period end
// and expire after the grace window.
type SubscriptionService interface {
	Get(ctx context.Context) (*SubscriptionView, error)
	ChangePlan(ctx context.Context, planCode string) (*SubscriptionView, error)
	CancelAtPeriodEnd(ctx context.Context) (*SubscriptionView, error)
	Resume(ctx context.Context) (*SubscriptionView, error)
	EnsureSeatAvailable(ctx context.Context, orgID uuid.UUID) error
	EnsureUsable(ctx context.Context, orgID uuid.UUID) error
	RunRenewalSweep(ctx context.Context, asOf time.Time, limit int) (*SweepResult, error)
}

type SubscriptionServiceDeps struct {
	DB            *gorm.DB
	Subscriptions repos.SubscriptionRepo
	Users         repos.UserRepo
	Catalog       *billing.Catalog
	Notifications NotificationService
}

type subscriptionService struct {
	log   *logger.Logger
	deps  SubscriptionServiceDeps
	grace time.Duration
}

func NewSubscriptionService(log *logger.Logger, deps SubscriptionServiceDeps) SubscriptionService {
	return &subscriptionService{
		log:   log.With("service", "SubscriptionService"),
		deps:  deps,
		grace: envutil.Duration("BILLING_PASTDUE_GRACE", 14*24*time.Hour),
	}
}

func (s *subscriptionService) Get(ctx context.Context) (*SubscriptionView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, rd.OrgID)
}

func (s *subscriptionService) ChangePlan(ctx context.Context, planCode string) (*SubscriptionView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return nil, err
	}
	plan, ok := s.deps.Catalog.Plan(planCode)
	if !ok {
		return nil, validationErr(fmt.Sprintf("unknown plan: %s", planCode))
	}

	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}

		sub, err := s.deps.Subscriptions.LockByOrgID(dbc, rd.OrgID)
		if err != nil {
			return err
		}
		if sub == nil {
			return notFoundErr("subscription", rd.OrgID)
		}

		members, err := s.deps.Users.CountByOrg(dbc, rd.OrgID)
		if err != nil {
			return err
		}
		if members > int64(plan.MaxSeats) {
			return apierr.New(http.StatusConflict, "conflict",
				fmt.Errorf("organization has %d members but plan %s allows %d seats", members, plan.Code, plan.MaxSeats))
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"plan_code":            plan.Code,
			"seats":                plan.MaxSeats,
			"cancel_at_period_end": false,
			"updated_at":           now,
		}
		// A dead subscription gets a fresh paid period on plan change.
		if sub.Status == types.SubscriptionStatusExpired ||
			sub.Status == types.SubscriptionStatusCancelled ||
			sub.Status == types.SubscriptionStatusPastDue {
			updates["status"] = types.SubscriptionStatusActive
			updates["period_start"] = now
			updates["period_end"] = now.AddDate(0, 1, 0)
		}
		return s.deps.Subscriptions.UpdateFields(dbc, sub.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("plan changed", "org_id", rd.OrgID, "plan", plan.Code)
	return s.view(ctx, rd.OrgID)
}

func (s *subscriptionService) CancelAtPeriodEnd(ctx context.Context) (*SubscriptionView, error) {
	return s.setCancelFlag(ctx, true)
}

func (s *subscriptionService) Resume(ctx context.Context) (*SubscriptionView, error) {
	return s.setCancelFlag(ctx, false)
}

func (s *subscriptionService) setCancelFlag(ctx context.Context, cancel bool) (*SubscriptionView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return nil, err
	}

	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		sub, err := s.deps.Subscriptions.LockByOrgID(dbc, rd.OrgID)
		if err != nil {
			return err
		}
		if sub == nil {
			return notFoundErr("subscription", rd.OrgID)
		}
		updates := map[string]interface{}{
			"cancel_at_period_end": cancel,
			"updated_at":           time.Now().UTC(),
		}
		// Resuming a CANCELLED subscription before anyone noticed gets a
		// fresh period rather than resurrecting the lapsed one.
		if !cancel && sub.Status == types.SubscriptionStatusCancelled {
			now := time.Now().UTC()
			updates["status"] = types.SubscriptionStatusActive
			updates["period_start"] = now
			updates["period_end"] = now.AddDate(0, 1, 0)
		}
		return s.deps.Subscriptions.UpdateFields(dbc, sub.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, rd.OrgID)
}

// EnsureSeatAvailable guards user creation against the plan seat cap.
func (s *subscriptionService) EnsureSeatAvailable(ctx context.Context, orgID uuid.UUID) error {
	dbc := readCtx(ctx)
	sub, err := s.deps.Subscriptions.GetByOrgID(dbc, orgID)
	if err != nil {
		return err
	}
	if sub == nil {
		return notFoundErr("subscription", orgID)
	}
	plan, ok := s.deps.Catalog.Plan(sub.PlanCode)
	if !ok {
		return fmt.Errorf("subscription references unknown plan %q", sub.PlanCode)
	}
	count, err := s.deps.Users.CountByOrg(dbc, orgID)
	if err != nil {
		return err
	}
	if count < int64(plan.MaxSeats) {
		return nil
	}

	msg := fmt.Sprintf("plan %s is limited to %d seats", plan.Name, plan.MaxSeats)
	if upgrade, ok := s.deps.Catalog.CheapestUpgradeFor(int(count) + 1); ok && upgrade.Code != plan.Code {
		msg = fmt.Sprintf("%s; upgrade to %s for %d seats", msg, upgrade.Name, upgrade.MaxSeats)
	}
	return apierr.New(http.StatusForbidden, "forbidden", fmt.Errorf("%s", msg))
}

// EnsureUsable rejects operations for orgs whose subscription has lapsed.
func (s *subscriptionService) EnsureUsable(ctx context.Context, orgID uuid.UUID) error {
	sub, err := s.deps.Subscriptions.GetByOrgID(readCtx(ctx), orgID)
	if err != nil {
		return err
	}
	if sub == nil {
		return notFoundErr("subscription", orgID)
	}
	switch sub.Status {
	case types.SubscriptionStatusExpired, types.SubscriptionStatusCancelled:
		return apierr.New(http.StatusForbidden, "subscription_inactive",
			fmt.Errorf("subscription is %s; choose a plan to continue", sub.Status))
	}
	return nil
}

func (s *subscriptionService) RunRenewalSweep(ctx context.Context, asOf time.Time, limit int) (*SweepResult, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	due, err := s.deps.Subscriptions.ListDueForSweep(readCtx(ctx), asOf, limit)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(due)}
	for _, candidate := range due {
		var moved string
		err := s.deps.DB.Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
			sub, err := s.deps.Subscriptions.LockByOrgID(dbc, candidate.OrgID)
			if err != nil {
				return err
			}
			if sub == nil {
				return nil
			}
			next, changed := sweepTransition(sub, asOf, s.grace)
			updates := map[string]interface{}{
				"last_swept_at": asOf,
				"updated_at":    asOf,
			}
			if changed {
				updates["status"] = next
				moved = next
			}
			return s.deps.Subscriptions.UpdateFields(dbc, sub.ID, updates)
		})
		if err != nil {
			s.log.Warn("sweep failed for subscription", "org_id", candidate.OrgID, "error", err)
			continue
		}
		switch moved {
		case types.SubscriptionStatusPastDue:
			result.MarkedPastDue++
		case types.SubscriptionStatusCancelled:
			result.Cancelled++
		case types.SubscriptionStatusExpired:
			result.Expired++
		}
		if moved != "" {
			s.notifyAdmins(ctx, candidate.OrgID, moved)
		}
	}

	s.log.Info("renewal sweep finished", "scanned", result.Scanned,
		"past_due", result.MarkedPastDue, "cancelled", result.Cancelled, "expired", result.Expired)
	return result, nil
}

// sweepTransition decides the next status for a subscription whose period
// has ended. It returns changed=false when the row should only be
// stamped, not moved.
func sweepTransition(sub *types.Subscription, asOf time.Time, grace time.Duration) (string, bool) {
	if sub == nil || !sub.PeriodEnd.Before(asOf) {
		return "", false
	}
	switch sub.Status {
	case types.SubscriptionStatusTrialing:
		return types.SubscriptionStatusExpired, true
	case types.SubscriptionStatusActive:
		if sub.CancelAtPeriodEnd {
			return types.SubscriptionStatusCancelled, true
		}
		return types.SubscriptionStatusPastDue, true
	case types.SubscriptionStatusPastDue:
		if sub.PeriodEnd.Add(grace).Before(asOf) {
			return types.SubscriptionStatusExpired, true
		}
		return "", false
	default:
		return "", false
	}
}

func (s *subscriptionService) notifyAdmins(ctx context.Context, orgID uuid.UUID, status string) {
	if s.deps.Notifications == nil {
		return
	}
	admins, err := s.deps.Users.ListByOrg(readCtx(ctx), orgID, types.RoleAdmin, 10)
	if err != nil {
		s.log.Warn("could not load admins for sweep notice", "org_id", orgID, "error", err)
		return
	}
	for _, admin := range admins {
		s.deps.Notifications.Notify(ctx, NotifyInput{
			OrgID:  orgID,
			UserID: admin.ID,
			Kind:   types.NotificationKindSubscription,
			Title:  "Subscription status changed",
			Body:   fmt.Sprintf("Your subscription is now %s.", status),
		})
	}
}

func (s *subscriptionService) view(ctx context.Context, orgID uuid.UUID) (*SubscriptionView, error) {
	sub, err := s.deps.Subscriptions.GetByOrgID(readCtx(ctx), orgID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, notFoundErr("subscription", orgID)
	}
	view := &SubscriptionView{Subscription: sub}
	if plan, ok := s.deps.Catalog.Plan(sub.PlanCode); ok {
		view.Plan = &plan
	}
	return view, nil
}
