package aggregates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	repotest "github.com/propflow/propflow-backend/internal/data/repos/testutil"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

type projectsTestEnv struct {
	tx         *gorm.DB
	agg        domainagg.ProjectsAggregate
	projects   repos.ProjectRepo
	milestones repos.MilestoneRepo
}

func newProjectsTestEnv(t *testing.T) *projectsTestEnv {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)

	env := &projectsTestEnv{
		tx:         tx,
		projects:   repos.NewProjectRepo(tx, log),
		milestones: repos.NewMilestoneRepo(tx, log),
	}
	env.agg = NewProjectsAggregate(ProjectsAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Projects:     env.projects,
		Milestones:   env.milestones,
		Updates:      repos.NewWeeklyUpdateRepo(tx, log),
		Expenses:     repos.NewExpenseRepo(tx, log),
		ChangeOrders: repos.NewChangeOrderRepo(tx, log),
	})
	return env
}

func weekStart(daysAgo int) time.Time {
	return time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -daysAgo)
}

func TestProjectsAggregateWeeklyUpdateRecomputesActualCost(t *testing.T) {
	env := newProjectsTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "proj-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)
	ms := repotest.SeedMilestone(t, ctx, env.tx, project.ID, 1000)

	first, err := env.agg.CreateWeeklyUpdate(ctx, domainagg.CreateWeeklyUpdateInput{
		OrgID:        org.ID,
		MilestoneID:  ms.ID,
		ActorID:      pm.ID,
		WeekStart:    weekStart(14),
		LabourCost:   100,
		MaterialCost: 50,
	})
	if err != nil {
		t.Fatalf("first weekly update: %v", err)
	}
	if first.TotalExpenditure != 150 {
		t.Fatalf("first total: want=150 got=%v", first.TotalExpenditure)
	}
	if first.MilestoneActualCost != 150 {
		t.Fatalf("first actual cost: want=150 got=%v", first.MilestoneActualCost)
	}

	second, err := env.agg.CreateWeeklyUpdate(ctx, domainagg.CreateWeeklyUpdateInput{
		OrgID:       org.ID,
		MilestoneID: ms.ID,
		ActorID:     pm.ID,
		WeekStart:   weekStart(7),
		LabourCost:  25,
		OtherCost:   10,
	})
	if err != nil {
		t.Fatalf("second weekly update: %v", err)
	}
	if second.MilestoneActualCost != 185 {
		t.Fatalf("second actual cost: want=185 got=%v", second.MilestoneActualCost)
	}

	rows, err := env.milestones.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{ms.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload milestone: rows=%d err=%v", len(rows), err)
	}
	if rows[0].ActualCost != 185 {
		t.Fatalf("stored actual cost: want=185 got=%v", rows[0].ActualCost)
	}

	// budget_spent tracks the same spend: each committed weekly update
	// moves the project total by its expenditure.
	projRows, err := env.projects.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{project.ID})
	if err != nil || len(projRows) != 1 {
		t.Fatalf("reload project: rows=%d err=%v", len(projRows), err)
	}
	if projRows[0].BudgetSpent != 185 {
		t.Fatalf("stored budget spent: want=185 got=%v", projRows[0].BudgetSpent)
	}
}

func TestProjectsAggregateWeeklyUpdateRejectsNegativeCost(t *testing.T) {
	env := newProjectsTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "proj-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)
	ms := repotest.SeedMilestone(t, ctx, env.tx, project.ID, 1000)

	_, err := env.agg.CreateWeeklyUpdate(ctx, domainagg.CreateWeeklyUpdateInput{
		OrgID:       org.ID,
		MilestoneID: ms.ID,
		ActorID:     pm.ID,
		WeekStart:   weekStart(7),
		LabourCost:  -5,
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got: %v", err)
	}
}

func TestProjectsAggregateCreateExpenseIncrementsBudgetSpent(t *testing.T) {
	env := newProjectsTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "proj-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)

	res, err := env.agg.CreateExpense(ctx, domainagg.CreateExpenseInput{
		OrgID:      org.ID,
		ProjectID:  project.ID,
		ActorID:    pm.ID,
		Category:   "MATERIAL",
		Amount:     200,
		IncurredOn: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if res.ProjectBudgetSpent != 200 {
		t.Fatalf("budget spent: want=200 got=%v", res.ProjectBudgetSpent)
	}

	rows, err := env.projects.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{project.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload project: rows=%d err=%v", len(rows), err)
	}
	if rows[0].BudgetSpent != 200 {
		t.Fatalf("stored budget spent: want=200 got=%v", rows[0].BudgetSpent)
	}
}

func TestProjectsAggregateDecideChangeOrder(t *testing.T) {
	env := newProjectsTestEnv(t)
	ctx := context.Background()

	org := repotest.SeedOrg(t, ctx, env.tx, "proj-"+uuid.NewString()[:8])
	pm := repotest.SeedUser(t, ctx, env.tx, org.ID, uuid.NewString()[:8]+"@test.dev", types.RolePropertyManager)
	project := repotest.SeedProject(t, ctx, env.tx, org.ID, pm.ID)

	co := &types.ChangeOrder{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		Title:       "Extra drainage run",
		AmountDelta: 500,
		Status:      types.ChangeOrderStatusProposed,
		ProposedBy:  pm.ID,
	}
	if err := env.tx.WithContext(ctx).Create(co).Error; err != nil {
		t.Fatalf("seed change order: %v", err)
	}

	res, err := env.agg.DecideChangeOrder(ctx, domainagg.DecideChangeOrderInput{
		OrgID:         org.ID,
		ChangeOrderID: co.ID,
		ActorID:       pm.ID,
		Approve:       true,
	})
	if err != nil {
		t.Fatalf("DecideChangeOrder: %v", err)
	}
	if res.Status != types.ChangeOrderStatusApproved {
		t.Fatalf("status: want=%s got=%s", types.ChangeOrderStatusApproved, res.Status)
	}
	if res.ProjectBudgetTotal != project.BudgetTotal+500 {
		t.Fatalf("budget total: want=%v got=%v", project.BudgetTotal+500, res.ProjectBudgetTotal)
	}

	rows, err := env.projects.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{project.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload project: rows=%d err=%v", len(rows), err)
	}
	if rows[0].BudgetTotal != project.BudgetTotal+500 {
		t.Fatalf("stored budget total: want=%v got=%v", project.BudgetTotal+500, rows[0].BudgetTotal)
	}

	_, err = env.agg.DecideChangeOrder(ctx, domainagg.DecideChangeOrderInput{
		OrgID:         org.ID,
		ChangeOrderID: co.ID,
		ActorID:       pm.ID,
		Approve:       false,
	})
	if err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict on second decision, got: %v", err)
	}
}
