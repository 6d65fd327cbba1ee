package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/pdf"
	"github.com/propflow/propflow-backend/internal/platform/gcp"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type CreatePaymentRequestInput struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	MilestoneID *uuid.UUID `json:"milestone_id,omitempty"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
}

type MarkPaidInput struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// PaymentService covers artisan payouts: request, review, payment and
// the payslip that falls out of it. Review and payment go through the
// payments aggregate; the slip PDF is a best-effort side effect.
type PaymentService interface {
	CreateRequest(ctx context.Context, in CreatePaymentRequestInput) (*types.PaymentRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*types.PaymentRequest, error)
	List(ctx context.Context, status string, artisanID uuid.UUID, limit int) ([]*types.PaymentRequest, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, status string) ([]*types.PaymentRequest, error)
	Decide(ctx context.Context, requestID uuid.UUID, approve bool, rejectReason string) (*types.PaymentRequest, error)
	MarkPaid(ctx context.Context, requestID uuid.UUID, in MarkPaidInput) (*domainagg.MarkPaymentPaidResult, error)
	ListPayslips(ctx context.Context, artisanID uuid.UUID, limit int) ([]*types.Payslip, error)
	PayslipDownloadURL(ctx context.Context, payslipID uuid.UUID) (string, error)
}

type PaymentServiceDeps struct {
	Requests      repos.PaymentRequestRepo
	Payslips      repos.PayslipRepo
	Projects      repos.ProjectRepo
	Users         repos.UserRepo
	Orgs          repos.OrganizationRepo
	Profiles      repos.ArtisanProfileRepo
	Aggregate     domainagg.PaymentsAggregate
	Bucket        gcp.BucketService
	Email         EmailService
	Notifications NotificationService
	Events        Notifier
}

type paymentService struct {
	log  *logger.Logger
	deps PaymentServiceDeps
}

func NewPaymentService(log *logger.Logger, deps PaymentServiceDeps) PaymentService {
	return &paymentService{log: log.With("service", "PaymentService"), deps: deps}
}

// CreateRequest opens a payout request. Artisans request for themselves.
func (s *paymentService) CreateRequest(ctx context.Context, in CreatePaymentRequestInput) (*types.PaymentRequest, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleArtisan); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, validationErr("amount must be positive")
	}
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{in.ProjectID})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 || projects[0].OrgID != rd.OrgID {
		return nil, notFoundErr("project", in.ProjectID)
	}

	request := &types.PaymentRequest{
		OrgID:       rd.OrgID,
		ProjectID:   in.ProjectID,
		MilestoneID: in.MilestoneID,
		ArtisanID:   rd.UserID,
		Description: strings.TrimSpace(in.Description),
		Amount:      roundMoney(in.Amount),
		Currency:    normalizeCurrency(in.Currency),
		Status:      types.PaymentStatusPending,
	}
	if _, err := s.deps.Requests.Create(readCtx(ctx), []*types.PaymentRequest{request}); err != nil {
		return nil, err
	}
	s.log.Info("payment requested", "request_id", request.ID, "project_id", in.ProjectID, "amount", request.Amount)
	return request, nil
}

func (s *paymentService) Get(ctx context.Context, requestID uuid.UUID) (*types.PaymentRequest, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	request, err := s.load(ctx, rd.OrgID, requestID)
	if err != nil {
		return nil, err
	}
	if rd.Role == types.RoleArtisan && request.ArtisanID != rd.UserID {
		return nil, notFoundErr("payment request", requestID)
	}
	return request, nil
}

func (s *paymentService) List(ctx context.Context, status string, artisanID uuid.UUID, limit int) ([]*types.PaymentRequest, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validPaymentStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown payment status: %s", status))
	}
	if rd.Role == types.RoleArtisan {
		artisanID = rd.UserID
	}
	return s.deps.Requests.ListByOrg(readCtx(ctx), rd.OrgID, status, artisanID, limit)
}

func (s *paymentService) ListByProject(ctx context.Context, projectID uuid.UUID, status string) ([]*types.PaymentRequest, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if status != "" && !validPaymentStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown payment status: %s", status))
	}
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 || projects[0].OrgID != rd.OrgID {
		return nil, notFoundErr("project", projectID)
	}
	return s.deps.Requests.ListByProject(readCtx(ctx), projectID, status)
}

// Decide approves or rejects a pending request through the aggregate,
// then tells the artisan.
func (s *paymentService) Decide(ctx context.Context, requestID uuid.UUID, approve bool, rejectReason string) (*types.PaymentRequest, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if !approve && strings.TrimSpace(rejectReason) == "" {
		return nil, validationErr("reject_reason is required when rejecting")
	}
	res, err := s.deps.Aggregate.DecidePaymentRequest(ctx, domainagg.DecidePaymentInput{
		OrgID:            rd.OrgID,
		PaymentRequestID: requestID,
		ReviewerID:       rd.UserID,
		Approve:          approve,
		RejectReason:     strings.TrimSpace(rejectReason),
	})
	if err != nil {
		return nil, err
	}
	request, err := s.load(ctx, rd.OrgID, requestID)
	if err != nil {
		return nil, err
	}
	s.announceDecision(ctx, rd.OrgID, request)
	s.log.Info("payment decided", "request_id", requestID, "status", res.Status, "by", rd.UserID)
	return request, nil
}

// MarkPaid settles an approved request. The aggregate writes the payslip
// row; the printable slip and the artisan notice follow best effort.
func (s *paymentService) MarkPaid(ctx context.Context, requestID uuid.UUID, in MarkPaidInput) (*domainagg.MarkPaymentPaidResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	res, err := s.deps.Aggregate.MarkPaymentRequestPaid(ctx, domainagg.MarkPaymentPaidInput{
		OrgID:            rd.OrgID,
		PaymentRequestID: requestID,
		ActorID:          rd.UserID,
		PeriodStart:      in.PeriodStart,
		PeriodEnd:        in.PeriodEnd,
	})
	if err != nil {
		return nil, err
	}

	request, err := s.load(ctx, rd.OrgID, requestID)
	if err == nil {
		s.renderPayslipPDF(ctx, rd.OrgID, request, &res)
		s.announceDecision(ctx, rd.OrgID, request)
	}
	s.log.Info("payment marked paid", "request_id", requestID,
		"payslip_id", res.PayslipID, "reference", res.Reference, "net", res.Net)
	return &res, nil
}

func (s *paymentService) ListPayslips(ctx context.Context, artisanID uuid.UUID, limit int) ([]*types.Payslip, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if rd.Role == types.RoleArtisan {
		artisanID = rd.UserID
	}
	if artisanID == uuid.Nil {
		return nil, validationErr("artisan_id is required")
	}
	slips, err := s.deps.Payslips.ListByArtisan(readCtx(ctx), artisanID, limit)
	if err != nil {
		return nil, err
	}
	filtered := slips[:0]
	for _, slip := range slips {
		if slip.OrgID == rd.OrgID {
			filtered = append(filtered, slip)
		}
	}
	return filtered, nil
}

func (s *paymentService) PayslipDownloadURL(ctx context.Context, payslipID uuid.UUID) (string, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return "", err
	}
	slips, err := s.deps.Payslips.GetByIDs(readCtx(ctx), []uuid.UUID{payslipID})
	if err != nil {
		return "", err
	}
	if len(slips) == 0 || slips[0].OrgID != rd.OrgID {
		return "", notFoundErr("payslip", payslipID)
	}
	if rd.Role == types.RoleArtisan && slips[0].ArtisanID != rd.UserID {
		return "", notFoundErr("payslip", payslipID)
	}
	if slips[0].SlipBucketKey == "" {
		return "", notFoundErr("payslip document", payslipID)
	}
	url, err := s.deps.Bucket.GetSignedDownloadURL(ctx, gcp.BucketCategoryDocument, slips[0].SlipBucketKey, time.Hour)
	if err != nil {
		return "", fmt.Errorf("sign payslip download: %w", err)
	}
	observability.Current().IncSignedURL(string(gcp.BucketCategoryDocument), "download")
	return url, nil
}

// renderPayslipPDF builds and stores the printable slip, then stamps the
// payslip row with the object location. Any failure leaves the payment
// itself intact.
func (s *paymentService) renderPayslipPDF(ctx context.Context, orgID uuid.UUID, request *types.PaymentRequest, res *domainagg.MarkPaymentPaidResult) {
	if s.deps.Bucket == nil {
		return
	}
	dbc := readCtx(ctx)

	doc := pdf.PayslipDocument{
		Reference:   res.Reference,
		PeriodStart: res.PaidAt,
		PaidAt:      &res.PaidAt,
		Currency:    request.Currency,
		Gross:       res.Gross,
		Deductions:  res.Deductions,
		Net:         res.Net,
		Description: request.Description,
	}
	if slips, err := s.deps.Payslips.GetByIDs(dbc, []uuid.UUID{res.PayslipID}); err == nil && len(slips) > 0 {
		doc.PeriodStart = slips[0].PeriodStart
		doc.PeriodEnd = slips[0].PeriodEnd
	}
	if orgs, err := s.deps.Orgs.GetByIDs(dbc, []uuid.UUID{orgID}); err == nil && len(orgs) > 0 {
		doc.OrgName = orgs[0].Name
		doc.DeductionRate = orgs[0].DeductionRate
	}
	if users, err := s.deps.Users.GetByIDs(dbc, []uuid.UUID{request.ArtisanID}); err == nil && len(users) > 0 {
		doc.ArtisanName = strings.TrimSpace(users[0].FirstName + " " + users[0].LastName)
	}
	if profiles, err := s.deps.Profiles.GetByUserIDs(dbc, []uuid.UUID{request.ArtisanID}); err == nil && len(profiles) > 0 {
		doc.Specialty = profiles[0].Specialty
	}
	if projects, err := s.deps.Projects.GetByIDs(dbc, []uuid.UUID{request.ProjectID}); err == nil && len(projects) > 0 {
		doc.ProjectName = projects[0].Name
	}

	raw, err := pdf.RenderPayslip(doc)
	if err != nil {
		s.log.Warn("payslip render failed (ignored)", "payslip_id", res.PayslipID, "error", err)
		return
	}
	key := fmt.Sprintf("payslip/%s/%s.pdf", orgID, res.Reference)
	if err := s.deps.Bucket.UploadFile(dbc, gcp.BucketCategoryDocument, key, bytes.NewReader(raw)); err != nil {
		s.log.Warn("payslip upload failed (ignored)", "payslip_id", res.PayslipID, "error", err)
		return
	}
	if err := s.deps.Payslips.UpdateFields(dbc, res.PayslipID, map[string]interface{}{
		"slip_bucket_key": key,
		"slip_url":        s.deps.Bucket.GetPublicURL(gcp.BucketCategoryDocument, key),
		"updated_at":      time.Now().UTC(),
	}); err != nil {
		s.log.Warn("payslip persist failed (ignored)", "payslip_id", res.PayslipID, "error", err)
	}
}

// announceDecision notifies the artisan over every channel.
func (s *paymentService) announceDecision(ctx context.Context, orgID uuid.UUID, request *types.PaymentRequest) {
	if request == nil {
		return
	}
	if s.deps.Notifications != nil {
		body := fmt.Sprintf("Your payment request is now %s.", request.Status)
		if request.Status == types.PaymentStatusRejected && request.RejectReason != "" {
			body = fmt.Sprintf("Your payment request was rejected: %s", request.RejectReason)
		}
		s.deps.Notifications.Notify(ctx, NotifyInput{
			OrgID:      orgID,
			UserID:     request.ArtisanID,
			Kind:       types.NotificationKindPaymentDecision,
			Title:      "Payment request update",
			Body:       body,
			EntityKind: "payment_request",
			EntityID:   &request.ID,
		})
	}
	if s.deps.Events != nil {
		s.deps.Events.PaymentDecision(request.ArtisanID, request)
	}
	if s.deps.Email != nil {
		users, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{request.ArtisanID})
		if err != nil || len(users) == 0 {
			s.log.Warn("could not load artisan for payment email", "artisan_id", request.ArtisanID, "error", err)
			return
		}
		if err := s.deps.Email.SendPaymentDecision(ctx, users[0], request); err != nil {
			s.log.Warn("payment decision email failed (ignored)", "request_id", request.ID, "error", err)
		}
	}
}

func (s *paymentService) load(ctx context.Context, orgID, requestID uuid.UUID) (*types.PaymentRequest, error) {
	rows, err := s.deps.Requests.GetByIDs(readCtx(ctx), []uuid.UUID{requestID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("payment request", requestID)
	}
	return rows[0], nil
}

func validPaymentStatus(status string) bool {
	switch status {
	case types.PaymentStatusPending, types.PaymentStatusApproved,
		types.PaymentStatusRejected, types.PaymentStatusPaid:
		return true
	}
	return false
}
