package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type ProposeChangeOrderInput struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Reason      string    `json:"reason"`
	AmountDelta float64   `json:"amount_delta"`
}

// ChangeOrderService handles scope changes. A proposal does nothing to
// the budget; only an approval, applied by the projects aggregate, moves
// the project's budget_total.
type ChangeOrderService interface {
	Propose(ctx context.Context, in ProposeChangeOrderInput) (*types.ChangeOrder, error)
	List(ctx context.Context, projectID uuid.UUID, status string) ([]*types.ChangeOrder, error)
	Decide(ctx context.Context, changeOrderID uuid.UUID, approve bool) (*domainagg.DecideChangeOrderResult, error)
}

type ChangeOrderServiceDeps struct {
	ChangeOrders repos.ChangeOrderRepo
	Projects     repos.ProjectRepo
	Aggregate    domainagg.ProjectsAggregate
}

type changeOrderService struct {
	log  *logger.Logger
	deps ChangeOrderServiceDeps
}

func NewChangeOrderService(log *logger.Logger, deps ChangeOrderServiceDeps) ChangeOrderService {
	return &changeOrderService{log: log.With("service", "ChangeOrderService"), deps: deps}
}

func (s *changeOrderService) Propose(ctx context.Context, in ProposeChangeOrderInput) (*types.ChangeOrder, error) {
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
	if in.AmountDelta == 0 {
		return nil, validationErr("amount_delta cannot be zero")
	}
	if _, err := s.loadProject(ctx, rd.OrgID, in.ProjectID); err != nil {
		return nil, err
	}
	co := &types.ChangeOrder{
		ProjectID:   in.ProjectID,
		Title:       strings.TrimSpace(in.Title),
		Reason:      in.Reason,
		AmountDelta: roundMoney(in.AmountDelta),
		Status:      types.ChangeOrderStatusProposed,
		ProposedBy:  rd.UserID,
	}
	if _, err := s.deps.ChangeOrders.Create(readCtx(ctx), []*types.ChangeOrder{co}); err != nil {
		return nil, err
	}
	s.log.Info("change order proposed", "change_order_id", co.ID, "project_id", in.ProjectID, "delta", co.AmountDelta)
	return co, nil
}

func (s *changeOrderService) List(ctx context.Context, projectID uuid.UUID, status string) ([]*types.ChangeOrder, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		switch status {
		case types.ChangeOrderStatusProposed, types.ChangeOrderStatusApproved, types.ChangeOrderStatusRejected:
		default:
			return nil, validationErr(fmt.Sprintf("unknown change order status: %s", status))
		}
	}
	if _, err := s.loadProject(ctx, rd.OrgID, projectID); err != nil {
		return nil, err
	}
	return s.deps.ChangeOrders.ListByProject(readCtx(ctx), projectID, status)
}

// Decide approves or rejects a proposal. Approval folds the delta into
// the project budget inside the aggregate's transaction.
func (s *changeOrderService) Decide(ctx context.Context, changeOrderID uuid.UUID, approve bool) (*domainagg.DecideChangeOrderResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	res, err := s.deps.Aggregate.DecideChangeOrder(ctx, domainagg.DecideChangeOrderInput{
		OrgID:         rd.OrgID,
		ChangeOrderID: changeOrderID,
		ActorID:       rd.UserID,
		Approve:       approve,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("change order decided", "change_order_id", changeOrderID, "status", res.Status, "by", rd.UserID)
	return &res, nil
}

func (s *changeOrderService) loadProject(ctx context.Context, orgID, projectID uuid.UUID) (*types.Project, error) {
	rows, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("project", projectID)
	}
	return rows[0], nil
}
