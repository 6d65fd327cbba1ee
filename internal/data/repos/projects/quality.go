package projects

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type QualityRepo interface {
	Create(dbc dbctx.Context, checkpoints []*types.QualityCheckpoint) ([]*types.QualityCheckpoint, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.QualityCheckpoint, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.QualityCheckpoint, error)
	CountByStatus(dbc dbctx.Context, projectID uuid.UUID) (map[string]int, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type qualityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQualityRepo(db *gorm.DB, baseLog *logger.Logger) QualityRepo {
	return &qualityRepo{db: db, log: baseLog.With("repo", "QualityRepo")}
}

func (r *qualityRepo) Create(dbc dbctx.Context, checkpoints []*types.QualityCheckpoint) ([]*types.QualityCheckpoint, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(checkpoints) == 0 {
		return []*types.QualityCheckpoint{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&checkpoints).Error; err != nil {
		return nil, err
	}
	return checkpoints, nil
}

func (r *qualityRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.QualityCheckpoint, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.QualityCheckpoint
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

func (r *qualityRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.QualityCheckpoint, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.QualityCheckpoint{}, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.QualityCheckpoint{}).
		Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.QualityCheckpoint
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *qualityRepo) CountByStatus(dbc dbctx.Context, projectID uuid.UUID) (map[string]int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[string]int{}
	if projectID == uuid.Nil {
		return out, nil
	}
	var rows []struct {
		Status string
		Count  int
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.QualityCheckpoint{}).
		Where("project_id = ?", projectID).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *qualityRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.QualityCheckpoint{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *qualityRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.QualityCheckpoint{}).Error
}
