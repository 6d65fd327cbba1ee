package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/gcp"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

const slipUploadExpiry = 15 * time.Minute

type CreateExpenseInput struct {
	ProjectID     uuid.UUID  `json:"project_id"`
	MilestoneID   *uuid.UUID `json:"milestone_id,omitempty"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Amount        float64    `json:"amount"`
	SlipBucketKey string     `json:"slip_bucket_key"`
	IncurredOn    time.Time  `json:"incurred_on"`
}

type SlipUploadTicket struct {
	BucketKey string    `json:"bucket_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpenseService records ad-hoc project costs. Receipts upload straight
// to the bucket via a presigned URL; the expense row only carries the
// object key.
type ExpenseService interface {
	PresignSlipUpload(ctx context.Context, filename, contentType string) (*SlipUploadTicket, error)
	Create(ctx context.Context, in CreateExpenseInput) (*domainagg.CreateExpenseResult, error)
	List(ctx context.Context, projectID uuid.UUID, category string, limit int) ([]*types.Expense, error)
	SlipDownloadURL(ctx context.Context, expenseID uuid.UUID) (string, error)
}

type ExpenseServiceDeps struct {
	Expenses  repos.ExpenseRepo
	Projects  repos.ProjectRepo
	Aggregate domainagg.ProjectsAggregate
	Bucket    gcp.BucketService
}

type expenseService struct {
	log  *logger.Logger
	deps ExpenseServiceDeps
}

func NewExpenseService(log *logger.Logger, deps ExpenseServiceDeps) ExpenseService {
	return &expenseService{log: log.With("service", "ExpenseService"), deps: deps}
}

// PresignSlipUpload hands the client a short-lived PUT URL for a receipt
// image. The returned bucket key goes into the subsequent Create call.
func (s *expenseService) PresignSlipUpload(ctx context.Context, filename, contentType string) (*SlipUploadTicket, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" {
		return nil, validationErr("filename is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("expense_slip/%s/%s-%s", rd.OrgID, uuid.New().String()[:8], sanitizeFilename(filename))
	url, err := s.deps.Bucket.GetSignedUploadURL(ctx, gcp.BucketCategoryAttachment, key, contentType, slipUploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign slip upload: %w", err)
	}
	observability.Current().IncSignedURL(string(gcp.BucketCategoryAttachment), "upload")
	return &SlipUploadTicket{
		BucketKey: key,
		UploadURL: url,
		ExpiresAt: time.Now().Add(slipUploadExpiry),
	}, nil
}

// Create books the expense through the projects aggregate, which bumps
// the project's budget_spent in the same transaction.
func (s *expenseService) Create(ctx context.Context, in CreateExpenseInput) (*domainagg.CreateExpenseResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager, types.RoleContractor); err != nil {
		return nil, err
	}
	var slipURL string
	if in.SlipBucketKey != "" {
		slipURL = s.deps.Bucket.GetPublicURL(gcp.BucketCategoryAttachment, in.SlipBucketKey)
	}
	res, err := s.deps.Aggregate.CreateExpense(ctx, domainagg.CreateExpenseInput{
		OrgID:         rd.OrgID,
		ProjectID:     in.ProjectID,
		MilestoneID:   in.MilestoneID,
		ActorID:       rd.UserID,
		Category:      strings.TrimSpace(in.Category),
		Description:   in.Description,
		Amount:        in.Amount,
		SlipBucketKey: in.SlipBucketKey,
		SlipURL:       slipURL,
		IncurredOn:    in.IncurredOn,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("expense recorded", "expense_id", res.ExpenseID, "project_id", in.ProjectID, "amount", in.Amount)
	return &res, nil
}

func (s *expenseService) List(ctx context.Context, projectID uuid.UUID, category string, limit int) ([]*types.Expense, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 || projects[0].OrgID != rd.OrgID {
		return nil, notFoundErr("project", projectID)
	}
	return s.deps.Expenses.ListByProject(readCtx(ctx), projectID, strings.TrimSpace(category), limit)
}

// SlipDownloadURL signs a fresh read URL for an expense receipt.
func (s *expenseService) SlipDownloadURL(ctx context.Context, expenseID uuid.UUID) (string, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return "", err
	}
	rows, err := s.deps.Expenses.GetByIDs(readCtx(ctx), []uuid.UUID{expenseID})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", notFoundErr("expense", expenseID)
	}
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{rows[0].ProjectID})
	if err != nil {
		return "", err
	}
	if len(projects) == 0 || projects[0].OrgID != rd.OrgID {
		return "", notFoundErr("expense", expenseID)
	}
	if rows[0].SlipBucketKey == "" {
		return "", notFoundErr("expense slip", expenseID)
	}
	url, err := s.deps.Bucket.GetSignedDownloadURL(ctx, gcp.BucketCategoryAttachment, rows[0].SlipBucketKey, time.Hour)
	if err != nil {
		return "", fmt.Errorf("sign slip download: %w", err)
	}
	observability.Current().IncSignedURL(string(gcp.BucketCategoryAttachment), "download")
	return url, nil
}

// sanitizeFilename keeps the base name and squashes anything that does
// not belong in an object key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
