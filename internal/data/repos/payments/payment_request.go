package payments

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type PaymentRequestRepo interface {
	Create(dbc dbctx.Context, requests []*types.PaymentRequest) ([]*types.PaymentRequest, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PaymentRequest, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, artisanID uuid.UUID, limit int) ([]*types.PaymentRequest, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.PaymentRequest, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.PaymentRequest, error)
	SumByProjectAndStatus(dbc dbctx.Context, projectID uuid.UUID, status string) (float64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type paymentRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRequestRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRequestRepo {
	return &paymentRequestRepo{db: db, log: baseLog.With("repo", "PaymentRequestRepo")}
}

func (r *paymentRequestRepo) Create(dbc dbctx.Context, requests []*types.PaymentRequest) ([]*types.PaymentRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(requests) == 0 {
		return []*types.PaymentRequest{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *paymentRequestRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PaymentRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PaymentRequest
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

func (r *paymentRequestRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, status string, artisanID uuid.UUID, limit int) ([]*types.PaymentRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil {
		return []*types.PaymentRequest{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentRequest{}).
		Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if artisanID != uuid.Nil {
		q = q.Where("artisan_id = ?", artisanID)
	}
	var out []*types.PaymentRequest
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRequestRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.PaymentRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.PaymentRequest{}, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentRequest{}).
		Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.PaymentRequest
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRequestRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.PaymentRequest, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.PaymentRequest
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *paymentRequestRepo) SumByProjectAndStatus(dbc dbctx.Context, projectID uuid.UUID, status string) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil || status == "" {
		return 0, nil
	}
	var total float64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentRequest{}).
		Where("project_id = ? AND status = ?", projectID, status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *paymentRequestRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *paymentRequestRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.PaymentRequest{}).Error
}
