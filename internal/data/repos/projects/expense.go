package projects

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type ExpenseRepo interface {
	Create(dbc dbctx.Context, expenses []*types.Expense) ([]*types.Expense, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Expense, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, category string, limit int) ([]*types.Expense, error)
	SumByProject(dbc dbctx.Context, projectID uuid.UUID) (float64, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type expenseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExpenseRepo(db *gorm.DB, baseLog *logger.Logger) ExpenseRepo {
	return &expenseRepo{db: db, log: baseLog.With("repo", "ExpenseRepo")}
}

func (r *expenseRepo) Create(dbc dbctx.Context, expenses []*types.Expense) ([]*types.Expense, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(expenses) == 0 {
		return []*types.Expense{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *expenseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Expense, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Expense
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

func (r *expenseRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, category string, limit int) ([]*types.Expense, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return []*types.Expense{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Expense{}).
		Where("project_id = ?", projectID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []*types.Expense
	if err := q.Order("incurred_on DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *expenseRepo) SumByProject(dbc dbctx.Context, projectID uuid.UUID) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return 0, nil
	}
	var total float64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Expense{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *expenseRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Expense{}).Error
}
