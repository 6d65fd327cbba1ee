package projects

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type WeeklyUpdateRepo interface {
	Create(dbc dbctx.Context, updates []*types.WeeklyBudgetUpdate) ([]*types.WeeklyBudgetUpdate, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.WeeklyBudgetUpdate, error)
	ListByMilestone(dbc dbctx.Context, milestoneID uuid.UUID) ([]*types.WeeklyBudgetUpdate, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.WeeklyBudgetUpdate, error)
	SumTotalByMilestone(dbc dbctx.Context, milestoneID uuid.UUID) (float64, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type weeklyUpdateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeeklyUpdateRepo(db *gorm.DB, baseLog *logger.Logger) WeeklyUpdateRepo {
	return &weeklyUpdateRepo{db: db, log: baseLog.With("repo", "WeeklyUpdateRepo")}
}

func (r *weeklyUpdateRepo) Create(dbc dbctx.Context, updates []*types.WeeklyBudgetUpdate) ([]*types.WeeklyBudgetUpdate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return []*types.WeeklyBudgetUpdate{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&updates).Error; err != nil {
		return nil, err
	}
	return updates, nil
}

func (r *weeklyUpdateRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.WeeklyBudgetUpdate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WeeklyBudgetUpdate
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

func (r *weeklyUpdateRepo) ListByMilestone(dbc dbctx.Context, milestoneID uuid.UUID) ([]*types.WeeklyBudgetUpdate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if milestoneID == uuid.Nil {
		return []*types.WeeklyBudgetUpdate{}, nil
	}
	var out []*types.WeeklyBudgetUpdate
	if err := transaction.WithContext(dbc.Ctx).
		Where("milestone_id = ?", milestoneID).
		Order("week_start DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *weeklyUpdateRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.WeeklyBudgetUpdate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.WeeklyBudgetUpdate{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*types.WeeklyBudgetUpdate
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("week_start DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SumTotalByMilestone totals total_expenditure over every live update row for
// the milestone. Callers recomputing actual_cost should hold the milestone row
// lock so concurrent weekly updates serialize.
func (r *weeklyUpdateRepo) SumTotalByMilestone(dbc dbctx.Context, milestoneID uuid.UUID) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if milestoneID == uuid.Nil {
		return 0, nil
	}
	var total float64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.WeeklyBudgetUpdate{}).
		Where("milestone_id = ?", milestoneID).
		Select("COALESCE(SUM(total_expenditure), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *weeklyUpdateRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.WeeklyBudgetUpdate{}).Error
}
