package crm

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type LeadRepo interface {
	Create(dbc dbctx.Context, leads []*types.Lead) ([]*types.Lead, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lead, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, limit int) ([]*types.Lead, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Lead, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type leadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo {
	return &leadRepo{db: db, log: baseLog.With("repo", "LeadRepo")}
}

func (r *leadRepo) Create(dbc dbctx.Context, leads []*types.Lead) ([]*types.Lead, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(leads) == 0 {
		return []*types.Lead{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *leadRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lead, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Lead
	if len(ids) == 0 {
		return out, nil
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *leadRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, limit int) ([]*types.Lead, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if orgID == uuid.Nil {
		return []*types.Lead{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Lead{}).
		Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.Lead
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *leadRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Lead, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Lead
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *leadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Lead{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *leadRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Lead{}).Error
}
