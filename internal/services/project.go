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

type CreateProjectInput struct {
	WorkOrderID   *uuid.UUID `json:"work_order_id,omitempty"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	ContractorID  *uuid.UUID `json:"contractor_id,omitempty"`
	ContractValue float64    `json:"contract_value"`
	BudgetTotal   float64    `json:"budget_total"`
	Currency      string     `json:"currency"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

type UpdateProjectInput struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// ProjectService covers project lifecycle. Budget figures move through
// the projects aggregate (weekly updates, expenses, change orders), not
// through direct edits here.
type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*types.Project, error)
	Get(ctx context.Context, projectID uuid.UUID) (*types.Project, error)
	List(ctx context.Context, status string, limit int) ([]*types.Project, error)
	Update(ctx context.Context, projectID uuid.UUID, in UpdateProjectInput) (*types.Project, error)
	Archive(ctx context.Context, projectID uuid.UUID) error
}

type projectService struct {
	log        *logger.Logger
	projects   repos.ProjectRepo
	workOrders repos.WorkOrderRepo
}

func NewProjectService(log *logger.Logger, projects repos.ProjectRepo, workOrders repos.WorkOrderRepo) ProjectService {
	return &projectService{log: log.With("service", "ProjectService"), projects: projects, workOrders: workOrders}
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*types.Project, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationErr("name is required")
	}
	if in.ContractValue < 0 || in.BudgetTotal < 0 {
		return nil, validationErr("contract_value and budget_total cannot be negative")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, validationErr("end_date cannot be before start_date")
	}

	contractorID := in.ContractorID
	if in.WorkOrderID != nil {
		orders, err := s.workOrders.GetByIDs(readCtx(ctx), []uuid.UUID{*in.WorkOrderID})
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 || orders[0].OrgID != rd.OrgID {
			return nil, notFoundErr("work order", *in.WorkOrderID)
		}
		// The project inherits the order's contractor unless overridden.
		if contractorID == nil {
			contractorID = orders[0].ContractorID
		}
	}

	project := &types.Project{
		OrgID:         rd.OrgID,
		WorkOrderID:   in.WorkOrderID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		PMID:          rd.UserID,
		ContractorID:  contractorID,
		Status:        types.ProjectStatusPlanning,
		ContractValue: roundMoney(in.ContractValue),
		BudgetTotal:   roundMoney(in.BudgetTotal),
		Currency:      normalizeCurrency(in.Currency),
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
	}
	if _, err := s.projects.Create(readCtx(ctx), []*types.Project{project}); err != nil {
		return nil, err
	}
	s.log.Info("project created", "project_id", project.ID, "name", project.Name)
	return project, nil
}

func (s *projectService) Get(ctx context.Context, projectID uuid.UUID) (*types.Project, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, projectID)
}

func (s *projectService) List(ctx context.Context, status string, limit int) ([]*types.Project, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validProjectStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown project status: %s", status))
	}
	return s.projects.ListByOrg(readCtx(ctx), rd.OrgID, status, limit)
}

func (s *projectService) Update(ctx context.Context, projectID uuid.UUID, in UpdateProjectInput) (*types.Project, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, rd.OrgID, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status == types.ProjectStatusArchived {
		return nil, conflictErr("archived projects cannot be edited")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, validationErr("name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		if !validProjectStatus(*in.Status) {
			return nil, validationErr(fmt.Sprintf("unknown project status: %s", *in.Status))
		}
		updates["status"] = *in.Status
	}
	if in.StartDate != nil {
		updates["start_date"] = *in.StartDate
	}
	if in.EndDate != nil {
		updates["end_date"] = *in.EndDate
	}
	if len(updates) == 0 {
		return nil, validationErr("no updatable fields provided")
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.projects.UpdateFields(readCtx(ctx), projectID, updates); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, projectID)
}

func (s *projectService) Archive(ctx context.Context, projectID uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return err
	}
	if _, err := s.load(ctx, rd.OrgID, projectID); err != nil {
		return err
	}
	return s.projects.UpdateFields(readCtx(ctx), projectID, map[string]interface{}{
		"status":     types.ProjectStatusArchived,
		"updated_at": time.Now().UTC(),
	})
}

func (s *projectService) load(ctx context.Context, orgID, projectID uuid.UUID) (*types.Project, error) {
	rows, err := s.projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("project", projectID)
	}
	return rows[0], nil
}

func validProjectStatus(status string) bool {
	switch status {
	case types.ProjectStatusPlanning, types.ProjectStatusActive, types.ProjectStatusOnHold,
		types.ProjectStatusCompleted, types.ProjectStatusArchived:
		return true
	}
	return false
}
