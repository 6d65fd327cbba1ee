package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type SubscriptionRepo interface {
	Create(dbc dbctx.Context, subscriptions []*types.Subscription) ([]*types.Subscription, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Subscription, error)
	GetByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Subscription, error)
	LockByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Subscription, error)
	ListDueForSweep(dbc dbctx.Context, asOf time.Time, limit int) ([]*types.Subscription, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{db: db, log: baseLog.With("repo", "SubscriptionRepo")}
}

func (r *subscriptionRepo) Create(dbc dbctx.Context, subscriptions []*types.Subscription) ([]*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(subscriptions) == 0 {
		return []*types.Subscription{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *subscriptionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Subscription
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subscriptionRepo) GetByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return nil, nil
	}
	var row types.Subscription
	if err := transaction.WithContext(dbc.Ctx).
		Where("org_id = ?", orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *subscriptionRepo) LockByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Subscription, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByOrgID requires dbc.Tx")
	}
	var out types.Subscription
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ?", orgID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDueForSweep returns subscriptions whose period ended before asOf and
// that are still in a state the sweep can advance.
func (r *subscriptionRepo) ListDueForSweep(dbc dbctx.Context, asOf time.Time, limit int) ([]*types.Subscription, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var out []*types.Subscription
	if err := transaction.WithContext(dbc.Ctx).
		Where("period_end < ? AND status IN ?", asOf, []string{
			types.SubscriptionStatusTrialing,
			types.SubscriptionStatusActive,
			types.SubscriptionStatusPastDue,
		}).
		Order("period_end ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subscriptionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}
