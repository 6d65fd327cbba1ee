package invoices

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type PMInvoiceRepo interface {
	Create(dbc dbctx.Context, invoices []*types.PropertyManagerInvoice) ([]*types.PropertyManagerInvoice, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PropertyManagerInvoice, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.PropertyManagerInvoice, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.PropertyManagerInvoice, error)
	ListPendingApproval(dbc dbctx.Context, pmID uuid.UUID, limit int) ([]*types.PropertyManagerInvoice, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.PropertyManagerInvoice, error)
	ExistsByNumber(dbc dbctx.Context, number string) (bool, error)
	CountAll(dbc dbctx.Context) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type pmInvoiceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPMInvoiceRepo(db *gorm.DB, baseLog *logger.Logger) PMInvoiceRepo {
	return &pmInvoiceRepo{db: db, log: baseLog.With("repo", "PMInvoiceRepo")}
}

func (r *pmInvoiceRepo) Create(dbc dbctx.Context, invoices []*types.PropertyManagerInvoice) ([]*types.PropertyManagerInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(invoices) == 0 {
		return []*types.PropertyManagerInvoice{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *pmInvoiceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PropertyManagerInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PropertyManagerInvoice
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

func (r *pmInvoiceRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.PropertyManagerInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.PropertyManagerInvoice{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.PropertyManagerInvoice{}).
		Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if contractorID != uuid.Nil {
		q = q.Where("contractor_id = ?", contractorID)
	}
	var out []*types.PropertyManagerInvoice
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pmInvoiceRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.PropertyManagerInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.PropertyManagerInvoice{}, nil
	}
	var out []*types.PropertyManagerInvoice
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pmInvoiceRepo) ListPendingApproval(dbc dbctx.Context, pmID uuid.UUID, limit int) ([]*types.PropertyManagerInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if pmID == uuid.Nil {
		return []*types.PropertyManagerInvoice{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*types.PropertyManagerInvoice
	if err := transaction.WithContext(dbc.Ctx).
		Where("pm_id = ? AND status = ?", pmID, types.PMInvoiceStatusSentToPM).
		Order("sent_to_pm_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pmInvoiceRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.PropertyManagerInvoice, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.PropertyManagerInvoice
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pmInvoiceRepo) ExistsByNumber(dbc dbctx.Context, number string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Model(&types.PropertyManagerInvoice{}).
		Where("invoice_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountAll counts every property manager invoice ever issued, soft-deleted
// rows included, so number sequences never restart after a void.
func (r *pmInvoiceRepo) CountAll(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Model(&types.PropertyManagerInvoice{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pmInvoiceRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.PropertyManagerInvoice{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *pmInvoiceRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.PropertyManagerInvoice{}).Error
}
