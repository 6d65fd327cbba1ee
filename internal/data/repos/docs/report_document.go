package docs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type ReportDocumentRepo interface {
	Create(dbc dbctx.Context, documents []*types.ReportDocument) ([]*types.ReportDocument, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ReportDocument, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, kind string, limit int) ([]*types.ReportDocument, error)
	ListByEntity(dbc dbctx.Context, entityID uuid.UUID) ([]*types.ReportDocument, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type reportDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ReportDocumentRepo {
	return &reportDocumentRepo{db: db, log: baseLog.With("repo", "ReportDocumentRepo")}
}

func (r *reportDocumentRepo) Create(dbc dbctx.Context, documents []*types.ReportDocument) ([]*types.ReportDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(documents) == 0 {
		return []*types.ReportDocument{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *reportDocumentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ReportDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ReportDocument
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

func (r *reportDocumentRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, kind string, limit int) ([]*types.ReportDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.ReportDocument{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.ReportDocument{}).
		Where("org_id = ?", orgID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []*types.ReportDocument
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportDocumentRepo) ListByEntity(dbc dbctx.Context, entityID uuid.UUID) ([]*types.ReportDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if entityID == uuid.Nil {
		return []*types.ReportDocument{}, nil
	}
	var out []*types.ReportDocument
	if err := transaction.WithContext(dbc.Ctx).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportDocumentRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.ReportDocument{}).Error
}
