package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type QuotationRepo interface {
	Create(dbc dbctx.Context, quotations []*types.Quotation) ([]*types.Quotation, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Quotation, error)
	ListByRFQ(dbc dbctx.Context, rfqID uuid.UUID) ([]*types.Quotation, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.Quotation, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Quotation, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	RejectSubmittedSiblings(dbc dbctx.Context, rfqID, exceptID uuid.UUID, decidedAt time.Time) (int64, error)
}

type quotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuotationRepo(db *gorm.DB, baseLog *logger.Logger) QuotationRepo {
	return &quotationRepo{db: db, log: baseLog.With("repo", "QuotationRepo")}
}

func (r *quotationRepo) Create(dbc dbctx.Context, quotations []*types.Quotation) ([]*types.Quotation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(quotations) == 0 {
		return []*types.Quotation{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

func (r *quotationRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Quotation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Quotation
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quotationRepo) ListByRFQ(dbc dbctx.Context, rfqID uuid.UUID) ([]*types.Quotation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if rfqID == uuid.Nil {
		return []*types.Quotation{}, nil
	}
	var out []*types.Quotation
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Items").
		Where("rfq_id = ?", rfqID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quotationRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.Quotation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.Quotation{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Quotation{}).
		Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if contractorID != uuid.Nil {
		q = q.Where("contractor_id = ?", contractorID)
	}
	var out []*types.Quotation
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quotationRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Quotation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Quotation
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *quotationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Quotation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// RejectSubmittedSiblings flips every other SUBMITTED quotation on the
// RFQ to REJECTED and reports how many rows moved.
func (r *quotationRepo) RejectSubmittedSiblings(dbc dbctx.Context, rfqID, exceptID uuid.UUID, decidedAt time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if rfqID == uuid.Nil {
		return 0, fmt.Errorf("missing rfq_id")
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Quotation{}).
		Where("rfq_id = ? AND id <> ? AND status = ?", rfqID, exceptID, types.QuotationStatusSubmitted).
		Updates(map[string]interface{}{
			"status":     types.QuotationStatusRejected,
			"updated_at": decidedAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
