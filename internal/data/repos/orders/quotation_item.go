package orders

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type QuotationItemRepo interface {
	Create(dbc dbctx.Context, items []*types.QuotationItem) ([]*types.QuotationItem, error)
	ListByQuotationIDs(dbc dbctx.Context, quotationIDs []uuid.UUID) ([]*types.QuotationItem, error)
	DeleteByQuotationIDs(dbc dbctx.Context, quotationIDs []uuid.UUID) error
}

type quotationItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuotationItemRepo(db *gorm.DB, baseLog *logger.Logger) QuotationItemRepo {
	return &quotationItemRepo{db: db, log: baseLog.With("repo", "QuotationItemRepo")}
}

func (r *quotationItemRepo) Create(dbc dbctx.Context, items []*types.QuotationItem) ([]*types.QuotationItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.QuotationItem{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *quotationItemRepo) ListByQuotationIDs(dbc dbctx.Context, quotationIDs []uuid.UUID) ([]*types.QuotationItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.QuotationItem
	if len(quotationIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("quotation_id IN ?", quotationIDs).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quotationItemRepo) DeleteByQuotationIDs(dbc dbctx.Context, quotationIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(quotationIDs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("quotation_id IN ?", quotationIDs).
		Delete(&types.QuotationItem{}).Error
}
