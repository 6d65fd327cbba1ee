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

type CreateRiskInput struct {
	ProjectID  uuid.UUID `json:"project_id"`
	Title      string    `json:"title"`
	Severity   string    `json:"severity"`
	Likelihood int       `json:"likelihood"`
	Impact     int       `json:"impact"`
	Mitigation string    `json:"mitigation"`
}

type UpdateRiskInput struct {
	Title      *string `json:"title,omitempty"`
	Severity   *string `json:"severity,omitempty"`
	Likelihood *int    `json:"likelihood,omitempty"`
	Impact     *int    `json:"impact,omitempty"`
	Status     *string `json:"status,omitempty"`
	Mitigation *string `json:"mitigation,omitempty"`
}

// RiskService tracks the project risk register. Open HIGH and CRITICAL
// entries drag the project health score down.
type RiskService interface {
	Create(ctx context.Context, in CreateRiskInput) (*types.ProjectRisk, error)
	List(ctx context.Context, projectID uuid.UUID, status string) ([]*types.ProjectRisk, error)
	Update(ctx context.Context, riskID uuid.UUID, in UpdateRiskInput) (*types.ProjectRisk, error)
	Close(ctx context.Context, riskID uuid.UUID) (*types.ProjectRisk, error)
}

type riskService struct {
	log      *logger.Logger
	risks    repos.RiskRepo
	projects repos.ProjectRepo
}

func NewRiskService(log *logger.Logger, risks repos.RiskRepo, projects repos.ProjectRepo) RiskService {
	return &riskService{log: log.With("service", "RiskService"), risks: risks, projects: projects}
}

func (s *riskService) Create(ctx context.Context, in CreateRiskInput) (*types.ProjectRisk, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager, types.RoleContractor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationErr("title is required")
	}
	if !validRiskSeverity(in.Severity) {
		return nil, validationErr(fmt.Sprintf("unknown risk severity: %s", in.Severity))
	}
	if in.Likelihood < 1 || in.Likelihood > 5 || in.Impact < 1 || in.Impact > 5 {
		return nil, validationErr("likelihood and impact must be between 1 and 5")
	}
	if _, err := s.loadProject(ctx, rd.OrgID, in.ProjectID); err != nil {
		return nil, err
	}
	risk := &types.ProjectRisk{
		ProjectID:  in.ProjectID,
		Title:      strings.TrimSpace(in.Title),
		Severity:   in.Severity,
		Likelihood: in.Likelihood,
		Impact:     in.Impact,
		Status:     types.RiskStatusOpen,
		Mitigation: in.Mitigation,
		RaisedBy:   rd.UserID,
	}
	if _, err := s.risks.Create(readCtx(ctx), []*types.ProjectRisk{risk}); err != nil {
		return nil, err
	}
	return risk, nil
}

func (s *riskService) List(ctx context.Context, projectID uuid.UUID, status string) ([]*types.ProjectRisk, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validRiskStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown risk status: %s", status))
	}
	if _, err := s.loadProject(ctx, rd.OrgID, projectID); err != nil {
		return nil, err
	}
	return s.risks.ListByProject(readCtx(ctx), projectID, status)
}

func (s *riskService) Update(ctx context.Context, riskID uuid.UUID, in UpdateRiskInput) (*types.ProjectRisk, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager, types.RoleContractor); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, rd.OrgID, riskID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, validationErr("title cannot be empty")
		}
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Severity != nil {
		if !validRiskSeverity(*in.Severity) {
			return nil, validationErr(fmt.Sprintf("unknown risk severity: %s", *in.Severity))
		}
		updates["severity"] = *in.Severity
	}
	if in.Likelihood != nil {
		if *in.Likelihood < 1 || *in.Likelihood > 5 {
			return nil, validationErr("likelihood must be between 1 and 5")
		}
		updates["likelihood"] = *in.Likelihood
	}
	if in.Impact != nil {
		if *in.Impact < 1 || *in.Impact > 5 {
			return nil, validationErr("impact must be between 1 and 5")
		}
		updates["impact"] = *in.Impact
	}
	if in.Status != nil {
		if !validRiskStatus(*in.Status) {
			return nil, validationErr(fmt.Sprintf("unknown risk status: %s", *in.Status))
		}
		updates["status"] = *in.Status
	}
	if in.Mitigation != nil {
		updates["mitigation"] = *in.Mitigation
	}
	if len(updates) == 0 {
		return nil, validationErr("no updatable fields provided")
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.risks.UpdateFields(readCtx(ctx), riskID, updates); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, riskID)
}

func (s *riskService) Close(ctx context.Context, riskID uuid.UUID) (*types.ProjectRisk, error) {
	status := types.RiskStatusClosed
	return s.Update(ctx, riskID, UpdateRiskInput{Status: &status})
}

func (s *riskService) load(ctx context.Context, orgID, riskID uuid.UUID) (*types.ProjectRisk, error) {
	rows, err := s.risks.GetByIDs(readCtx(ctx), []uuid.UUID{riskID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFoundErr("risk", riskID)
	}
	if _, err := s.loadProject(ctx, orgID, rows[0].ProjectID); err != nil {
		return nil, notFoundErr("risk", riskID)
	}
	return rows[0], nil
}

func (s *riskService) loadProject(ctx context.Context, orgID, projectID uuid.UUID) (*types.Project, error) {
	rows, err := s.projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("project", projectID)
	}
	return rows[0], nil
}

func validRiskSeverity(severity string) bool {
	switch severity {
	case types.RiskSeverityLow, types.RiskSeverityMedium, types.RiskSeverityHigh, types.RiskSeverityCritical:
		return true
	}
	return false
}

func validRiskStatus(status string) bool {
	switch status {
	case types.RiskStatusOpen, types.RiskStatusMitigating, types.RiskStatusClosed:
		return true
	}
	return false
}
