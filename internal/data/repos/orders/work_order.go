package orders

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type WorkOrderRepo interface {
	Create(dbc dbctx.Context, workOrders []*types.WorkOrder) ([]*types.WorkOrder, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.WorkOrder, error)
	GetByRFQID(dbc dbctx.Context, rfqID uuid.UUID) (*types.WorkOrder, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.WorkOrder, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkOrder, error)
	CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type workOrderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkOrderRepo(db *gorm.DB, baseLog *logger.Logger) WorkOrderRepo {
	return &workOrderRepo{db: db, log: baseLog.With("repo", "WorkOrderRepo")}
}

func (r *workOrderRepo) Create(dbc dbctx.Context, workOrders []*types.WorkOrder) ([]*types.WorkOrder, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(workOrders) == 0 {
		return []*types.WorkOrder{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&workOrders).Error; err != nil {
		return nil, err
	}
	return workOrders, nil
}

func (r *workOrderRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.WorkOrder, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WorkOrder
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

func (r *workOrderRepo) GetByRFQID(dbc dbctx.Context, rfqID uuid.UUID) (*types.WorkOrder, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if rfqID == uuid.Nil {
		return nil, nil
	}
	var order types.WorkOrder
	err := transaction.WithContext(dbc.Ctx).
		Where("rfq_id = ?", rfqID).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == uuid.Nil {
		return nil, nil
	}
	return &order, nil
}

func (r *workOrderRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.WorkOrder, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.WorkOrder{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.WorkOrder{}).
		Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if contractorID != uuid.Nil {
		q = q.Where("contractor_id = ?", contractorID)
	}
	var out []*types.WorkOrder
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *workOrderRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkOrder, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.WorkOrder
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *workOrderRepo) CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.WorkOrder{}).
		Unscoped().
		Where("org_id = ?", orgID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *workOrderRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.WorkOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *workOrderRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.WorkOrder{}).Error
}
