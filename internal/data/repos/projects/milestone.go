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

type MilestoneRepo interface {
	Create(dbc dbctx.Context, milestones []*types.Milestone) ([]*types.Milestone, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Milestone, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Milestone, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Milestone, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type milestoneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneRepo {
	return &milestoneRepo{db: db, log: baseLog.With("repo", "MilestoneRepo")}
}

func (r *milestoneRepo) Create(dbc dbctx.Context, milestones []*types.Milestone) ([]*types.Milestone, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(milestones) == 0 {
		return []*types.Milestone{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

func (r *milestoneRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Milestone, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Milestone
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

func (r *milestoneRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Milestone, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.Milestone{}, nil
	}
	var out []*types.Milestone
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *milestoneRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Milestone, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Milestone
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *milestoneRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Milestone{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *milestoneRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Milestone{}).Error
}
