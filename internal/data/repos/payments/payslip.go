package payments

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type PayslipRepo interface {
	Create(dbc dbctx.Context, payslips []*types.Payslip) ([]*types.Payslip, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Payslip, error)
	GetByPaymentRequestIDs(dbc dbctx.Context, requestIDs []uuid.UUID) ([]*types.Payslip, error)
	ListByArtisan(dbc dbctx.Context, artisanID uuid.UUID, limit int) ([]*types.Payslip, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type payslipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPayslipRepo(db *gorm.DB, baseLog *logger.Logger) PayslipRepo {
	return &payslipRepo{db: db, log: baseLog.With("repo", "PayslipRepo")}
}

func (r *payslipRepo) Create(dbc dbctx.Context, payslips []*types.Payslip) ([]*types.Payslip, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(payslips) == 0 {
		return []*types.Payslip{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&payslips).Error; err != nil {
		return nil, err
	}
	return payslips, nil
}

func (r *payslipRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Payslip, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Payslip
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

func (r *payslipRepo) GetByPaymentRequestIDs(dbc dbctx.Context, requestIDs []uuid.UUID) ([]*types.Payslip, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Payslip
	if len(requestIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("payment_request_id IN ?", requestIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *payslipRepo) ListByArtisan(dbc dbctx.Context, artisanID uuid.UUID, limit int) ([]*types.Payslip, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if artisanID == uuid.Nil {
		return []*types.Payslip{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*types.Payslip
	if err := transaction.WithContext(dbc.Ctx).
		Where("artisan_id = ?", artisanID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *payslipRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Payslip{}).
		Where("id = ?", id).
		Updates(updates).Error
}
