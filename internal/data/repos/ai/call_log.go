package ai

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type CallLogRepo interface {
	Create(dbc dbctx.Context, logs []*types.AICallLog) ([]*types.AICallLog, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, kind string, limit int) ([]*types.AICallLog, error)
	CountByOrgSince(dbc dbctx.Context, orgID uuid.UUID, since time.Time) (int64, error)
}

type callLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCallLogRepo(db *gorm.DB, baseLog *logger.Logger) CallLogRepo {
	return &callLogRepo{db: db, log: baseLog.With("repo", "CallLogRepo")}
}

func (r *callLogRepo) Create(dbc dbctx.Context, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.AICallLog{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *callLogRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, kind string, limit int) ([]*types.AICallLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.AICallLog{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.AICallLog{}).
		Where("org_id = ?", orgID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []*types.AICallLog
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountByOrgSince backs the per-plan AI quota check.
func (r *callLogRepo) CountByOrgSince(dbc dbctx.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.AICallLog{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
