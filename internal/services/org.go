package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type UpdateOrgInput struct {
	Name          *string  `json:"name,omitempty"`
	DeductionRate *float64 `json:"deduction_rate,omitempty"`
}

type OrganizationService interface {
	Get(ctx context.Context) (*types.Organization, error)
	Update(ctx context.Context, in UpdateOrgInput) (*types.Organization, error)
	UploadLogo(ctx context.Context, raw []byte) (*types.Organization, error)
	Members(ctx context.Context, role string, limit int) ([]*types.User, error)
}

type orgService struct {
	log     *logger.Logger
	orgs    repos.OrganizationRepo
	users   repos.UserRepo
	avatars AvatarService
}

func NewOrganizationService(log *logger.Logger, orgs repos.OrganizationRepo, users repos.UserRepo, avatars AvatarService) OrganizationService {
	return &orgService{
		log:     log.With("service", "OrganizationService"),
		orgs:    orgs,
		users:   users,
		avatars: avatars,
	}
}

func (s *orgService) Get(ctx context.Context) (*types.Organization, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID)
}

func (s *orgService) Update(ctx context.Context, in UpdateOrgInput) (*types.Organization, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationErr("name may not be empty")
		}
		updates["name"] = name
	}
	if in.DeductionRate != nil {
		if *in.DeductionRate < 0 || *in.DeductionRate > 1 {
			return nil, validationErr("deduction_rate must be between 0 and 1")
		}
		updates["deduction_rate"] = *in.DeductionRate
	}
	if len(updates) == 0 {
		return nil, validationErr("no updatable fields provided")
	}

	if err := s.orgs.UpdateFields(readCtx(ctx), rd.OrgID, updates); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID)
}

func (s *orgService) UploadLogo(ctx context.Context, raw []byte) (*types.Organization, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, validationErr("logo image is required")
	}

	org, err := s.load(ctx, rd.OrgID)
	if err != nil {
		return nil, err
	}

	dbc := readCtx(ctx)
	if err := s.avatars.UploadOrgLogoImage(dbc, org, raw); err != nil {
		return nil, err
	}
	if err := s.orgs.UpdateFields(dbc, org.ID, map[string]interface{}{
		"logo_bucket_key": org.LogoBucketKey,
		"logo_url":        org.LogoURL,
	}); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *orgService) Members(ctx context.Context, role string, limit int) ([]*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if role != "" && !types.ValidRole(role) {
		return nil, validationErr("unknown role filter")
	}
	return s.users.ListByOrg(readCtx(ctx), rd.OrgID, role, limit)
}

func (s *orgService) load(ctx context.Context, orgID uuid.UUID) (*types.Organization, error) {
	rows, err := s.orgs.GetByIDs(readCtx(ctx), []uuid.UUID{orgID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFoundErr("organization", orgID)
	}
	return rows[0], nil
}
