package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

type ProjectsAggregateDeps struct {
	Base BaseDeps

	Projects     repos.ProjectRepo
	Milestones   repos.MilestoneRepo
	Updates      repos.WeeklyUpdateRepo
	Expenses     repos.ExpenseRepo
	ChangeOrders repos.ChangeOrderRepo
}

type projectsAggregate struct {
	deps ProjectsAggregateDeps
}

func NewProjectsAggregate(deps ProjectsAggregateDeps) domainagg.ProjectsAggregate {
	deps.Base = deps.Base.withDefaults()
	return &projectsAggregate{deps: deps}
}

func (a *projectsAggregate) Contract() domainagg.Contract {
	return domainagg.ProjectsAggregateContract
}

func (a *projectsAggregate) CreateWeeklyUpdate(ctx context.Context, in domainagg.CreateWeeklyUpdateInput) (domainagg.CreateWeeklyUpdateResult, error) {
	const op = "Projects.CreateWeeklyUpdate"
	var out domainagg.CreateWeeklyUpdateResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.MilestoneID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing milestone_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.WeekStart.IsZero() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing week_start", nil)
	}
	if in.LabourCost < 0 || in.MaterialCost < 0 || in.OtherCost < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "cost components must be >= 0", nil)
	}
	if a.deps.Projects == nil || a.deps.Milestones == nil || a.deps.Updates == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "projects aggregate repos not configured", nil)
	}

	recordedAt := time.Now().UTC()
	total := in.LabourCost + in.MaterialCost + in.OtherCost

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.deps.Milestones.LockByID(dbc, in.MilestoneID)
		if err != nil {
			return err
		}
		if m == nil || m.ID == uuid.Nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("milestone not found: %s", in.MilestoneID.String()), nil)
		}
		ps, err := a.deps.Projects.GetByIDs(dbc, []uuid.UUID{m.ProjectID})
		if err != nil {
			return err
		}
		if len(ps) == 0 || ps[0].OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("milestone not found: %s", in.MilestoneID.String()), nil)
		}

		row := &types.WeeklyBudgetUpdate{
			ID:               uuid.New(),
			ProjectID:        m.ProjectID,
			MilestoneID:      m.ID,
			WeekStart:        in.WeekStart.UTC(),
			LabourCost:       in.LabourCost,
			MaterialCost:     in.MaterialCost,
			OtherCost:        in.OtherCost,
			TotalExpenditure: total,
			Notes:            strings.TrimSpace(in.Notes),
			SubmittedBy:      in.ActorID,
		}
		if _, err := a.deps.Updates.Create(dbc, []*types.WeeklyBudgetUpdate{row}); err != nil {
			return err
		}

		actual, err := a.deps.Updates.SumTotalByMilestone(dbc, m.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Milestones.UpdateFields(dbc, m.ID, map[string]interface{}{
			"actual_cost": actual,
			"updated_at":  recordedAt,
		}); err != nil {
			return err
		}
		// budget_spent is defined as milestone actuals plus expenses, so
		// the week's spend moves it in the same transaction.
		if err := a.deps.Projects.IncrementBudgetSpent(dbc, m.ProjectID, total); err != nil {
			return err
		}

		out = domainagg.CreateWeeklyUpdateResult{
			UpdateID:            row.ID,
			MilestoneID:         m.ID,
			TotalExpenditure:    total,
			MilestoneActualCost: actual,
			RecordedAt:          recordedAt,
		}
		return nil
	})
	return out, err
}

func (a *projectsAggregate) CreateExpense(ctx context.Context, in domainagg.CreateExpenseInput) (domainagg.CreateExpenseResult, error) {
	const op = "Projects.CreateExpense"
	var out domainagg.CreateExpenseResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.ProjectID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if strings.TrimSpace(in.Category) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing expense category", nil)
	}
	if in.Amount <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "expense amount must be > 0", nil)
	}
	if a.deps.Projects == nil || a.deps.Expenses == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "projects aggregate repos not configured", nil)
	}

	recordedAt := time.Now().UTC()
	incurredOn := in.IncurredOn.UTC()
	if incurredOn.IsZero() {
		incurredOn = recordedAt
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Projects.LockByID(dbc, in.ProjectID)
		if err != nil {
			return err
		}
		if p == nil || p.ID == uuid.Nil || p.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("project not found: %s", in.ProjectID.String()), nil)
		}

		row := &types.Expense{
			ID:            uuid.New(),
			ProjectID:     p.ID,
			MilestoneID:   in.MilestoneID,
			Category:      strings.TrimSpace(in.Category),
			Description:   strings.TrimSpace(in.Description),
			Amount:        in.Amount,
			SlipBucketKey: in.SlipBucketKey,
			SlipURL:       in.SlipURL,
			IncurredOn:    incurredOn,
			SubmittedBy:   in.ActorID,
		}
		if _, err := a.deps.Expenses.Create(dbc, []*types.Expense{row}); err != nil {
			return err
		}
		if err := a.deps.Projects.IncrementBudgetSpent(dbc, p.ID, in.Amount); err != nil {
			return err
		}

		out = domainagg.CreateExpenseResult{
			ExpenseID:          row.ID,
			ProjectID:          p.ID,
			ProjectBudgetSpent: p.BudgetSpent + in.Amount,
			RecordedAt:         recordedAt,
		}
		return nil
	})
	return out, err
}

func (a *projectsAggregate) DecideChangeOrder(ctx context.Context, in domainagg.DecideChangeOrderInput) (domainagg.DecideChangeOrderResult, error) {
	const op = "Projects.DecideChangeOrder"
	var out domainagg.DecideChangeOrderResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.ChangeOrderID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing change_order_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if a.deps.Projects == nil || a.deps.ChangeOrders == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "projects aggregate repos not configured", nil)
	}

	decidedAt := time.Now().UTC()
	target := types.ChangeOrderStatusRejected
	if in.Approve {
		target = types.ChangeOrderStatusApproved
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		co, err := a.deps.ChangeOrders.LockByID(dbc, in.ChangeOrderID)
		if err != nil {
			return err
		}
		if co == nil || co.ID == uuid.Nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("change order not found: %s", in.ChangeOrderID.String()), nil)
		}
		ps, err := a.deps.Projects.GetByIDs(dbc, []uuid.UUID{co.ProjectID})
		if err != nil {
			return err
		}
		if len(ps) == 0 || ps[0].OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("change order not found: %s", in.ChangeOrderID.String()), nil)
		}
		p := ps[0]
		if err := RequireStatusAllowed(co.Status, types.ChangeOrderStatusProposed); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.ChangeOrder{}.TableName(), co.ID,
			[]string{types.ChangeOrderStatusProposed},
			map[string]any{
				"status":     target,
				"decided_by": in.ActorID,
				"decided_at": decidedAt,
				"updated_at": decidedAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "change order already decided"); err != nil {
			return err
		}

		budgetTotal := p.BudgetTotal
		if in.Approve {
			if err := a.deps.Projects.IncrementBudgetTotal(dbc, p.ID, co.AmountDelta); err != nil {
				return err
			}
			budgetTotal += co.AmountDelta
		}

		out = domainagg.DecideChangeOrderResult{
			ChangeOrderID:      co.ID,
			ProjectID:          p.ID,
			Status:             target,
			ProjectBudgetTotal: budgetTotal,
			DecidedAt:          decidedAt,
		}
		return nil
	})
	return out, err
}
