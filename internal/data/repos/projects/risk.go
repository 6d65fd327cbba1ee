package projects

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type RiskRepo interface {
	Create(dbc dbctx.Context, risks []*types.ProjectRisk) ([]*types.ProjectRisk, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProjectRisk, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.ProjectRisk, error)
	CountOpenBySeverity(dbc dbctx.Context, projectID uuid.UUID) (map[string]int, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type riskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRiskRepo(db *gorm.DB, baseLog *logger.Logger) RiskRepo {
	return &riskRepo{db: db, log: baseLog.With("repo", "RiskRepo")}
}

func (r *riskRepo) Create(dbc dbctx.Context, risks []*types.ProjectRisk) ([]*types.ProjectRisk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(risks) == 0 {
		return []*types.ProjectRisk{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&risks).Error; err != nil {
		return nil, err
	}
	return risks, nil
}

func (r *riskRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProjectRisk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProjectRisk
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

func (r *riskRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.ProjectRisk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.ProjectRisk{}, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectRisk{}).
		Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.ProjectRisk
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *riskRepo) CountOpenBySeverity(dbc dbctx.Context, projectID uuid.UUID) (map[string]int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[string]int{}
	if projectID == uuid.Nil {
		return out, nil
	}
	var rows []struct {
		Severity string
		Count    int
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectRisk{}).
		Where("project_id = ? AND status <> ?", projectID, types.RiskStatusClosed).
		Select("severity, COUNT(*) AS count").
		Group("severity").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Severity] = row.Count
	}
	return out, nil
}

func (r *riskRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectRisk{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *riskRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.ProjectRisk{}).Error
}
