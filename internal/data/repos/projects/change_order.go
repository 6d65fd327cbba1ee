package projects

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type ChangeOrderRepo interface {
	Create(dbc dbctx.Context, orders []*types.ChangeOrder) ([]*types.ChangeOrder, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ChangeOrder, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.ChangeOrder, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ChangeOrder, error)
	SumApprovedDeltaByProject(dbc dbctx.Context, projectID uuid.UUID) (float64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type changeOrderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChangeOrderRepo(db *gorm.DB, baseLog *logger.Logger) ChangeOrderRepo {
	return &changeOrderRepo{db: db, log: baseLog.With("repo", "ChangeOrderRepo")}
}

func (r *changeOrderRepo) Create(dbc dbctx.Context, orders []*types.ChangeOrder) ([]*types.ChangeOrder, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(orders) == 0 {
		return []*types.ChangeOrder{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *changeOrderRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ChangeOrder, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ChangeOrder
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

func (r *changeOrderRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.ChangeOrder, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.ChangeOrder{}, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.ChangeOrder{}).
		Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.ChangeOrder
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *changeOrderRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ChangeOrder, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.ChangeOrder
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *changeOrderRepo) SumApprovedDeltaByProject(dbc dbctx.Context, projectID uuid.UUID) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return 0, nil
	}
	var total float64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ChangeOrder{}).
		Where("project_id = ? AND status = ?", projectID, types.ChangeOrderStatusApproved).
		Select("COALESCE(SUM(amount_delta), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *changeOrderRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ChangeOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *changeOrderRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.ChangeOrder{}).Error
}
