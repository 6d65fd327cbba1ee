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

type CreateMilestoneInput struct {
	ProjectID    uuid.UUID  `json:"project_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	BudgetedCost float64    `json:"budgeted_cost"`
	WeightPct    float64    `json:"weight_pct"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type UpdateMilestoneInput struct {
	Name         *string    `json:"name,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *string    `json:"status,omitempty"`
	BudgetedCost *float64   `json:"budgeted_cost,omitempty"`
	WeightPct    *float64   `json:"weight_pct,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type WeeklyUpdateInput struct {
	WeekStart    time.Time `json:"week_start"`
	LabourCost   float64   `json:"labour_cost"`
	MaterialCost float64   `json:"material_cost"`
	OtherCost    float64   `json:"other_cost"`
	Notes        string    `json:"notes"`
}

// MilestoneService manages milestones and their weekly budget updates.
// Weekly updates go through the projects aggregate so the milestone's
// actual cost and the project's spent figure stay consistent.
type MilestoneService interface {
	Create(ctx context.Context, in CreateMilestoneInput) (*types.Milestone, error)
	Get(ctx context.Context, milestoneID uuid.UUID) (*types.Milestone, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*types.Milestone, error)
	Update(ctx context.Context, milestoneID uuid.UUID, in UpdateMilestoneInput) (*types.Milestone, error)
	Delete(ctx context.Context, milestoneID uuid.UUID) error
	CreateWeeklyUpdate(ctx context.Context, milestoneID uuid.UUID, in WeeklyUpdateInput) (*domainagg.CreateWeeklyUpdateResult, error)
	ListWeeklyUpdates(ctx context.Context, milestoneID uuid.UUID) ([]*types.WeeklyBudgetUpdate, error)
}

type MilestoneServiceDeps struct {
	Milestones    repos.MilestoneRepo
	Projects      repos.ProjectRepo
	WeeklyUpdates repos.WeeklyUpdateRepo
	Aggregate     domainagg.ProjectsAggregate
}

type milestoneService struct {
	log  *logger.Logger
	deps MilestoneServiceDeps
}

func NewMilestoneService(log *logger.Logger, deps MilestoneServiceDeps) MilestoneService {
	return &milestoneService{log: log.With("service", "MilestoneService"), deps: deps}
}

func (s *milestoneService) Create(ctx context.Context, in CreateMilestoneInput) (*types.Milestone, error) {
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
	if in.BudgetedCost < 0 {
		return nil, validationErr("budgeted_cost cannot be negative")
	}
	if in.WeightPct < 0 || in.WeightPct > 100 {
		return nil, validationErr("weight_pct must be between 0 and 100")
	}
	if _, err := s.loadProject(ctx, rd.OrgID, in.ProjectID); err != nil {
		return nil, err
	}

	milestone := &types.Milestone{
		ProjectID:    in.ProjectID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Status:       types.MilestoneStatusPlanned,
		BudgetedCost: roundMoney(in.BudgetedCost),
		WeightPct:    in.WeightPct,
		StartDate:    in.StartDate,
		DueDate:      in.DueDate,
	}
	if _, err := s.deps.Milestones.Create(readCtx(ctx), []*types.Milestone{milestone}); err != nil {
		return nil, err
	}
	return milestone, nil
}

func (s *milestoneService) Get(ctx context.Context, milestoneID uuid.UUID) (*types.Milestone, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	milestone, _, err := s.load(ctx, rd.OrgID, milestoneID)
	return milestone, err
}

func (s *milestoneService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*types.Milestone, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadProject(ctx, rd.OrgID, projectID); err != nil {
		return nil, err
	}
	return s.deps.Milestones.ListByProject(readCtx(ctx), projectID)
}

func (s *milestoneService) Update(ctx context.Context, milestoneID uuid.UUID, in UpdateMilestoneInput) (*types.Milestone, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if _, _, err := s.load(ctx, rd.OrgID, milestoneID); err != nil {
		return nil, err
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
		switch *in.Status {
		case types.MilestoneStatusPlanned, types.MilestoneStatusInProgress:
			updates["status"] = *in.Status
		case types.MilestoneStatusCompleted:
			updates["status"] = *in.Status
			updates["completed_at"] = time.Now().UTC()
		default:
			return nil, validationErr(fmt.Sprintf("unknown milestone status: %s", *in.Status))
		}
	}
	if in.BudgetedCost != nil {
		if *in.BudgetedCost < 0 {
			return nil, validationErr("budgeted_cost cannot be negative")
		}
		updates["budgeted_cost"] = roundMoney(*in.BudgetedCost)
	}
	if in.WeightPct != nil {
		if *in.WeightPct < 0 || *in.WeightPct > 100 {
			return nil, validationErr("weight_pct must be between 0 and 100")
		}
		updates["weight_pct"] = *in.WeightPct
	}
	if in.StartDate != nil {
		updates["start_date"] = *in.StartDate
	}
	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	}
	if len(updates) == 0 {
		return nil, validationErr("no updatable fields provided")
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.deps.Milestones.UpdateFields(readCtx(ctx), milestoneID, updates); err != nil {
		return nil, err
	}
	milestone, _, err := s.load(ctx, rd.OrgID, milestoneID)
	return milestone, err
}

func (s *milestoneService) Delete(ctx context.Context, milestoneID uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return err
	}
	milestone, _, err := s.load(ctx, rd.OrgID, milestoneID)
	if err != nil {
		return err
	}
	// Milestones with recorded spend stay; deleting them would orphan
	// the project's budget_spent figure.
	if milestone.ActualCost > 0 {
		return conflictErr("milestones with recorded expenditure cannot be deleted")
	}
	return s.deps.Milestones.SoftDeleteByIDs(readCtx(ctx), []uuid.UUID{milestoneID})
}

// CreateWeeklyUpdate records a week of spend against a milestone. The
// aggregate recomputes the milestone's actual cost and bumps the
// project's spent total in one transaction.
func (s *milestoneService) CreateWeeklyUpdate(ctx context.Context, milestoneID uuid.UUID, in WeeklyUpdateInput) (*domainagg.CreateWeeklyUpdateResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager, types.RoleContractor); err != nil {
		return nil, err
	}
	res, err := s.deps.Aggregate.CreateWeeklyUpdate(ctx, domainagg.CreateWeeklyUpdateInput{
		OrgID:        rd.OrgID,
		MilestoneID:  milestoneID,
		ActorID:      rd.UserID,
		WeekStart:    in.WeekStart,
		LabourCost:   in.LabourCost,
		MaterialCost: in.MaterialCost,
		OtherCost:    in.OtherCost,
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("weekly update recorded", "milestone_id", milestoneID,
		"week_start", in.WeekStart.Format("2006-01-02"), "total", res.TotalExpenditure)
	return &res, nil
}

func (s *milestoneService) ListWeeklyUpdates(ctx context.Context, milestoneID uuid.UUID) ([]*types.WeeklyBudgetUpdate, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.load(ctx, rd.OrgID, milestoneID); err != nil {
		return nil, err
	}
	return s.deps.WeeklyUpdates.ListByMilestone(readCtx(ctx), milestoneID)
}

// load fetches a milestone and proves, via its project, that it belongs
// to the caller's org.
func (s *milestoneService) load(ctx context.Context, orgID, milestoneID uuid.UUID) (*types.Milestone, *types.Project, error) {
	rows, err := s.deps.Milestones.GetByIDs(readCtx(ctx), []uuid.UUID{milestoneID})
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, notFoundErr("milestone", milestoneID)
	}
	project, err := s.loadProject(ctx, orgID, rows[0].ProjectID)
	if err != nil {
		return nil, nil, notFoundErr("milestone", milestoneID)
	}
	return rows[0], project, nil
}

func (s *milestoneService) loadProject(ctx context.Context, orgID, projectID uuid.UUID) (*types.Project, error) {
	rows, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("project", projectID)
	}
	return rows[0], nil
}
