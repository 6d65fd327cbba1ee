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

type RFQRepo interface {
	Create(dbc dbctx.Context, rfqs []*types.RFQ) ([]*types.RFQ, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.RFQ, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, limit int) ([]*types.RFQ, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.RFQ, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type rfqRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRFQRepo(db *gorm.DB, baseLog *logger.Logger) RFQRepo {
	return &rfqRepo{db: db, log: baseLog.With("repo", "RFQRepo")}
}

func (r *rfqRepo) Create(dbc dbctx.Context, rfqs []*types.RFQ) ([]*types.RFQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rfqs) == 0 {
		return []*types.RFQ{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rfqs).Error; err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (r *rfqRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.RFQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RFQ
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

func (r *rfqRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, limit int) ([]*types.RFQ, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.RFQ{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.RFQ{}).
		Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.RFQ
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rfqRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.RFQ, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.RFQ
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *rfqRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.RFQ{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *rfqRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.RFQ{}).Error
}
