package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type CreateLeadInput struct {
	PropertyName    string `json:"property_name"`
	PropertyAddress string `json:"property_address"`
	ContactName     string `json:"contact_name"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
	Source          string `json:"source"`
	Notes           string `json:"notes"`
}

type UpdateLeadInput struct {
	PropertyName    *string `json:"property_name,omitempty"`
	PropertyAddress *string `json:"property_address,omitempty"`
	ContactName     *string `json:"contact_name,omitempty"`
	ContactEmail    *string `json:"contact_email,omitempty"`
	ContactPhone    *string `json:"contact_phone,omitempty"`
	Source          *string `json:"source,omitempty"`
	Status          *string `json:"status,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type ConvertLeadInput struct {
	Title    string     `json:"title"`
	Category string     `json:"category"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type LeadService interface {
	Create(ctx context.Context, in CreateLeadInput) (*types.Lead, error)
	Get(ctx context.Context, leadID uuid.UUID) (*types.Lead, error)
	List(ctx context.Context, status string, limit int) ([]*types.Lead, error)
	Update(ctx context.Context, leadID uuid.UUID, in UpdateLeadInput) (*types.Lead, error)
	Delete(ctx context.Context, leadID uuid.UUID) error
	ConvertToRFQ(ctx context.Context, leadID uuid.UUID, in ConvertLeadInput) (*domainagg.ConvertLeadResult, error)
}

type leadService struct {
	log    *logger.Logger
	leads  repos.LeadRepo
	orders domainagg.OrdersAggregate
}

func NewLeadService(log *logger.Logger, leads repos.LeadRepo, orders domainagg.OrdersAggregate) LeadService {
	return &leadService{log: log.With("service", "LeadService"), leads: leads, orders: orders}
}

func (s *leadService) Create(ctx context.Context, in CreateLeadInput) (*types.Lead, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ContactName) == "" {
		return nil, validationErr("contact_name is required")
	}
	lead := &types.Lead{
		OrgID:           rd.OrgID,
		PropertyName:    strings.TrimSpace(in.PropertyName),
		PropertyAddress: strings.TrimSpace(in.PropertyAddress),
		ContactName:     strings.TrimSpace(in.ContactName),
		ContactEmail:    strings.TrimSpace(in.ContactEmail),
		ContactPhone:    strings.TrimSpace(in.ContactPhone),
		Source:          strings.TrimSpace(in.Source),
		Status:          types.LeadStatusNew,
		Notes:           in.Notes,
		CreatedBy:       rd.UserID,
	}
	if _, err := s.leads.Create(readCtx(ctx), []*types.Lead{lead}); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *leadService) Get(ctx context.Context, leadID uuid.UUID) (*types.Lead, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, leadID)
}

func (s *leadService) List(ctx context.Context, status string, limit int) ([]*types.Lead, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validLeadStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown lead status: %s", status))
	}
	return s.leads.ListByOrg(readCtx(ctx), rd.OrgID, status, limit)
}

func (s *leadService) Update(ctx context.Context, leadID uuid.UUID, in UpdateLeadInput) (*types.Lead, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	lead, err := s.load(ctx, rd.OrgID, leadID)
	if err != nil {
		return nil, err
	}
	// Converted leads are frozen; the RFQ carries the work from here.
	if lead.Status == types.LeadStatusConverted {
		return nil, conflictErr("lead has been converted and can no longer be edited")
	}

	updates := map[string]interface{}{}
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	setString("property_name", in.PropertyName)
	setString("property_address", in.PropertyAddress)
	setString("contact_name", in.ContactName)
	setString("contact_email", in.ContactEmail)
	setString("contact_phone", in.ContactPhone)
	setString("source", in.Source)
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Status != nil {
		if !validLeadStatus(*in.Status) {
			return nil, validationErr(fmt.Sprintf("unknown lead status: %s", *in.Status))
		}
		if *in.Status == types.LeadStatusConverted {
			return nil, validationErr("use the convert operation to mark a lead converted")
		}
		updates["status"] = *in.Status
	}
	if name, ok := updates["contact_name"].(string); ok && name == "" {
		return nil, validationErr("contact_name cannot be empty")
	}
	if len(updates) == 0 {
		return nil, validationErr("no updatable fields provided")
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.leads.UpdateFields(readCtx(ctx), leadID, updates); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, leadID)
}

func (s *leadService) Delete(ctx context.Context, leadID uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return err
	}
	lead, err := s.load(ctx, rd.OrgID, leadID)
	if err != nil {
		return err
	}
	if lead.Status == types.LeadStatusConverted {
		return conflictErr("converted leads cannot be deleted")
	}
	return s.leads.SoftDeleteByIDs(readCtx(ctx), []uuid.UUID{leadID})
}

// ConvertToRFQ promotes a lead into an RFQ. The aggregate owns the
// lead-lock, double-convert check, and RFQ creation.
func (s *leadService) ConvertToRFQ(ctx context.Context, leadID uuid.UUID, in ConvertLeadInput) (*domainagg.ConvertLeadResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	res, err := s.orders.ConvertLeadToRFQ(ctx, domainagg.ConvertLeadInput{
		OrgID:    rd.OrgID,
		LeadID:   leadID,
		ActorID:  rd.UserID,
		Title:    strings.TrimSpace(in.Title),
		Category: strings.TrimSpace(in.Category),
		Deadline: in.Deadline,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("lead converted", "lead_id", res.LeadID, "rfq_id", res.RFQID, "by", rd.UserID)
	return &res, nil
}

func (s *leadService) load(ctx context.Context, orgID, leadID uuid.UUID) (*types.Lead, error) {
	rows, err := s.leads.GetByIDs(readCtx(ctx), []uuid.UUID{leadID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("lead", leadID)
	}
	return rows[0], nil
}

func validLeadStatus(status string) bool {
	switch status {
	case types.LeadStatusNew, types.LeadStatusContacted, types.LeadStatusQualified,
		types.LeadStatusConverted, types.LeadStatusLost:
		return true
	}
	return false
}
