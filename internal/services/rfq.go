package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type CreateRFQInput struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	PropertyAddress string     `json:"property_address"`
	Category        string     `json:"category"`
	Deadline        *time.Time `json:"deadline,omitempty"`
}

type RFQView struct {
	RFQ        *types.RFQ         `json:"rfq"`
	Quotations []*types.Quotation `json:"quotations,omitempty"`
}

type BroadcastResult struct {
	Recipients int `json:"recipients"`
}

// RFQService owns the request-for-quotation lifecycle up to the point
// quotations take over: creation, broadcast to contractors, and closing.
type RFQService interface {
	Create(ctx context.Context, in CreateRFQInput) (*types.RFQ, error)
	Get(ctx context.Context, rfqID uuid.UUID) (*RFQView, error)
	List(ctx context.Context, status string, limit int) ([]*types.RFQ, error)
	Close(ctx context.Context, rfqID uuid.UUID) (*types.RFQ, error)
	SendToContractors(ctx context.Context, rfqID uuid.UUID) (*BroadcastResult, error)
}

type RFQServiceDeps struct {
	RFQs          repos.RFQRepo
	Quotations    repos.QuotationRepo
	Users         repos.UserRepo
	Email         EmailService
	Notifications NotificationService
}

type rfqService struct {
	log  *logger.Logger
	deps RFQServiceDeps
}

func NewRFQService(log *logger.Logger, deps RFQServiceDeps) RFQService {
	return &rfqService{log: log.With("service", "RFQService"), deps: deps}
}

func (s *rfqService) Create(ctx context.Context, in CreateRFQInput) (*types.RFQ, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationErr("title is required")
	}
	if in.Deadline != nil && in.Deadline.Before(time.Now()) {
		return nil, validationErr("deadline must be in the future")
	}
	rfq := &types.RFQ{
		OrgID:           rd.OrgID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		PropertyAddress: strings.TrimSpace(in.PropertyAddress),
		Category:        strings.TrimSpace(in.Category),
		Deadline:        in.Deadline,
		Status:          types.RFQStatusOpen,
		RaisedBy:        rd.UserID,
	}
	if _, err := s.deps.RFQs.Create(readCtx(ctx), []*types.RFQ{rfq}); err != nil {
		return nil, err
	}
	return rfq, nil
}

func (s *rfqService) Get(ctx context.Context, rfqID uuid.UUID) (*RFQView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	rfq, err := s.load(ctx, rd.OrgID, rfqID)
	if err != nil {
		return nil, err
	}
	quotations, err := s.deps.Quotations.ListByRFQ(readCtx(ctx), rfqID)
	if err != nil {
		return nil, err
	}
	// Contractors only see their own quotations; draft pricing is not
	// shared with competitors.
	if rd.Role == types.RoleContractor {
		mine := quotations[:0]
		for _, q := range quotations {
			if q.ContractorID == rd.UserID {
				mine = append(mine, q)
			}
		}
		quotations = mine
	}
	return &RFQView{RFQ: rfq, Quotations: quotations}, nil
}

func (s *rfqService) List(ctx context.Context, status string, limit int) ([]*types.RFQ, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validRFQStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown RFQ status: %s", status))
	}
	return s.deps.RFQs.ListByOrg(readCtx(ctx), rd.OrgID, status, limit)
}

// Close withdraws an RFQ from quoting without converting it. Converted
// RFQs are immutable.
func (s *rfqService) Close(ctx context.Context, rfqID uuid.UUID) (*types.RFQ, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	rfq, err := s.load(ctx, rd.OrgID, rfqID)
	if err != nil {
		return nil, err
	}
	switch rfq.Status {
	case types.RFQStatusConverted:
		return nil, conflictErr("RFQ has been converted to a work order")
	case types.RFQStatusClosed:
		return rfq, nil
	}
	if err := s.deps.RFQs.UpdateFields(readCtx(ctx), rfqID, map[string]interface{}{
		"status":     types.RFQStatusClosed,
		"updated_at": time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, rfqID)
}

// SendToContractors emails every contractor in the org about an open RFQ
// and drops an in-app notification for each. Individual delivery
// failures are logged and skipped.
func (s *rfqService) SendToContractors(ctx context.Context, rfqID uuid.UUID) (*BroadcastResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	rfq, err := s.load(ctx, rd.OrgID, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status != types.RFQStatusOpen && rfq.Status != types.RFQStatusQuoted {
		return nil, conflictErr(fmt.Sprintf("RFQ in status %s cannot be broadcast", rfq.Status))
	}

	contractors, err := s.deps.Users.ListByOrg(readCtx(ctx), rd.OrgID, types.RoleContractor, 0)
	if err != nil {
		return nil, err
	}
	if len(contractors) == 0 {
		return &BroadcastResult{}, nil
	}

	if s.deps.Email != nil {
		if err := s.deps.Email.SendRFQBroadcast(ctx, contractors, rfq); err != nil {
			s.log.Warn("RFQ broadcast email failed (ignored)", "rfq_id", rfqID, "error", err)
		}
	}
	if s.deps.Notifications != nil {
		for _, c := range contractors {
			s.deps.Notifications.Notify(ctx, NotifyInput{
				OrgID:      rd.OrgID,
				UserID:     c.ID,
				Kind:       types.NotificationKindQuotationMoved,
				Title:      "New RFQ available",
				Body:       fmt.Sprintf("%s is open for quotations.", rfq.Title),
				EntityKind: "rfq",
				EntityID:   &rfq.ID,
			})
		}
	}
	s.log.Info("RFQ broadcast", "rfq_id", rfqID, "recipients", len(contractors))
	return &BroadcastResult{Recipients: len(contractors)}, nil
}

func (s *rfqService) load(ctx context.Context, orgID, rfqID uuid.UUID) (*types.RFQ, error) {
	rows, err := s.deps.RFQs.GetByIDs(readCtx(ctx), []uuid.UUID{rfqID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("RFQ", rfqID)
	}
	return rows[0], nil
}

func validRFQStatus(status string) bool {
	switch status {
	case types.RFQStatusOpen, types.RFQStatusQuoted, types.RFQStatusConverted, types.RFQStatusClosed:
		return true
	}
	return false
}
