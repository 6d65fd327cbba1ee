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

type ContractorInvoiceRepo interface {
	Create(dbc dbctx.Context, invoices []*types.ContractorInvoice) ([]*types.ContractorInvoice, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContractorInvoice, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.ContractorInvoice, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ContractorInvoice, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ContractorInvoice, error)
	ExistsByNumber(dbc dbctx.Context, number string) (bool, error)
	CountAll(dbc dbctx.Context) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type contractorInvoiceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContractorInvoiceRepo(db *gorm.DB, baseLog *logger.Logger) ContractorInvoiceRepo {
	return &contractorInvoiceRepo{db: db, log: baseLog.With("repo", "ContractorInvoiceRepo")}
}

func (r *contractorInvoiceRepo) Create(dbc dbctx.Context, invoices []*types.ContractorInvoice) ([]*types.ContractorInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(invoices) == 0 {
		return []*types.ContractorInvoice{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *contractorInvoiceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContractorInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContractorInvoice
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

func (r *contractorInvoiceRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, contractorID uuid.UUID, limit int) ([]*types.ContractorInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.ContractorInvoice{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.ContractorInvoice{}).
		Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if contractorID != uuid.Nil {
		q = q.Where("contractor_id = ?", contractorID)
	}
	var out []*types.ContractorInvoice
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contractorInvoiceRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ContractorInvoice, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.ContractorInvoice{}, nil
	}
	var out []*types.ContractorInvoice
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contractorInvoiceRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ContractorInvoice, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.ContractorInvoice
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ExistsByNumber checks numbers across soft-deleted rows too so a voided
// invoice never frees its number for reuse.
func (r *contractorInvoiceRepo) ExistsByNumber(dbc dbctx.Context, number string) (bool, error) {
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
		Model(&types.ContractorInvoice{}).
		Where("invoice_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountAll counts every contractor invoice ever issued, soft-deleted rows
// included, so number sequences never restart after a void.
func (r *contractorInvoiceRepo) CountAll(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Model(&types.ContractorInvoice{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *contractorInvoiceRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ContractorInvoice{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contractorInvoiceRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.ContractorInvoice{}).Error
}
