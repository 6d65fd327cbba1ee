package crm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type ArtisanProfileRepo interface {
	Create(dbc dbctx.Context, profiles []*types.ArtisanProfile) ([]*types.ArtisanProfile, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ArtisanProfile, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.ArtisanProfile, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, specialty string, limit int) ([]*types.ArtisanProfile, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type artisanProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtisanProfileRepo(db *gorm.DB, baseLog *logger.Logger) ArtisanProfileRepo {
	return &artisanProfileRepo{db: db, log: baseLog.With("repo", "ArtisanProfileRepo")}
}

func (r *artisanProfileRepo) Create(dbc dbctx.Context, profiles []*types.ArtisanProfile) ([]*types.ArtisanProfile, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(profiles) == 0 {
		return []*types.ArtisanProfile{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *artisanProfileRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ArtisanProfile, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ArtisanProfile
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

func (r *artisanProfileRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.ArtisanProfile, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ArtisanProfile
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *artisanProfileRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, specialty string, limit int) ([]*types.ArtisanProfile, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if orgID == uuid.Nil {
		return []*types.ArtisanProfile{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.ArtisanProfile{}).
		Where("org_id = ?", orgID)
	if specialty != "" {
		q = q.Where("specialty = ?", specialty)
	}
	var out []*types.ArtisanProfile
	if err := q.Order("rating DESC, jobs_completed DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *artisanProfileRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.ArtisanProfile{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *artisanProfileRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.ArtisanProfile{}).Error
}
