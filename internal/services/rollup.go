package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

// ProjectFinancials is the read-side money picture of a project. Every
// figure is recomputed from source rows at request time; nothing here is
// cached or persisted.
type ProjectFinancials struct {
	ProjectID     uuid.UUID `json:"project_id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	Currency      string    `json:"currency"`
	ContractValue float64   `json:"contract_value"`
	BudgetTotal   float64   `json:"budget_total"`
	BudgetSpent   float64   `json:"budget_spent"`

	ActualCostSum     float64 `json:"actual_cost_sum"`
	ExpenseTotal      float64 `json:"expense_total"`
	ApprovedChanges   float64 `json:"approved_changes"`
	PaymentsPending   float64 `json:"payments_pending"`
	PaymentsApproved  float64 `json:"payments_approved"`
	PaymentsPaid      float64 `json:"payments_paid"`
	BudgetUtilization float64 `json:"budget_utilization"`
	BudgetVariance    float64 `json:"budget_variance"`
	ProfitMargin      float64 `json:"profit_margin"`

	ScheduleProgress float64 `json:"schedule_progress"`
	HealthScore      float64 `json:"health_score"`
	HealthLabel      string  `json:"health_label"`

	OpenRisksBySeverity map[string]int        `json:"open_risks_by_severity"`
	CheckpointsByStatus map[string]int        `json:"checkpoints_by_status"`
	CheckpointPassRate  float64               `json:"checkpoint_pass_rate"`
	Milestones          []MilestoneFinancials `json:"milestones"`
}

type MilestoneFinancials struct {
	MilestoneID  uuid.UUID  `json:"milestone_id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	BudgetedCost float64    `json:"budgeted_cost"`
	ActualCost   float64    `json:"actual_cost"`
	WeightPct    float64    `json:"weight_pct"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type RollupAuditResult struct {
	ProjectsChecked int `json:"projects_checked"`
	ProjectDrift    int `json:"project_drift"`
	MilestoneDrift  int `json:"milestone_drift"`
}

// RollupService computes project financials and audits the persisted
// rollup columns against their source rows. Compute skips the caller
// check so report generation and the digest job can reuse the math.
type RollupService interface {
	ProjectFinancials(ctx context.Context, projectID uuid.UUID) (*ProjectFinancials, error)
	Compute(ctx context.Context, project *types.Project) (*ProjectFinancials, error)
	AuditRollups(ctx context.Context, limit int) (*RollupAuditResult, error)
}

type RollupServiceDeps struct {
	Projects      repos.ProjectRepo
	Milestones    repos.MilestoneRepo
	WeeklyUpdates repos.WeeklyUpdateRepo
	Expenses      repos.ExpenseRepo
	ChangeOrders  repos.ChangeOrderRepo
	Risks         repos.RiskRepo
	Quality       repos.QualityRepo
	Payments      repos.PaymentRequestRepo
}

type rollupService struct {
	log  *logger.Logger
	deps RollupServiceDeps
}

func NewRollupService(log *logger.Logger, deps RollupServiceDeps) RollupService {
	return &rollupService{log: log.With("service", "RollupService"), deps: deps}
}

func (s *rollupService) ProjectFinancials(ctx context.Context, projectID uuid.UUID) (*ProjectFinancials, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 || projects[0].OrgID != rd.OrgID {
		return nil, notFoundErr("project", projectID)
	}
	return s.Compute(ctx, projects[0])
}

// Compute fans the independent aggregate queries out in parallel; each
// leg reads through its own connection.
func (s *rollupService) Compute(ctx context.Context, project *types.Project) (*ProjectFinancials, error) {
	if project == nil {
		return nil, validationErr("project is required")
	}
	out := &ProjectFinancials{
		ProjectID:     project.ID,
		Name:          project.Name,
		Status:        project.Status,
		Currency:      project.Currency,
		ContractValue: project.ContractValue,
		BudgetTotal:   project.BudgetTotal,
		BudgetSpent:   project.BudgetSpent,
	}

	var milestones []*types.Milestone
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		milestones, err = s.deps.Milestones.ListByProject(readCtx(gctx), project.ID)
		return err
	})
	g.Go(func() error {
		var err error
		out.ExpenseTotal, err = s.deps.Expenses.SumByProject(readCtx(gctx), project.ID)
		return err
	})
	g.Go(func() error {
		var err error
		out.ApprovedChanges, err = s.deps.ChangeOrders.SumApprovedDeltaByProject(readCtx(gctx), project.ID)
		return err
	})
	g.Go(func() error {
		var err error
		out.OpenRisksBySeverity, err = s.deps.Risks.CountOpenBySeverity(readCtx(gctx), project.ID)
		return err
	})
	g.Go(func() error {
		var err error
		out.CheckpointsByStatus, err = s.deps.Quality.CountByStatus(readCtx(gctx), project.ID)
		return err
	})
	g.Go(func() error {
		var err error
		out.PaymentsPending, err = s.deps.Payments.SumByProjectAndStatus(readCtx(gctx), project.ID, types.PaymentStatusPending)
		return err
	})
	g.Go(func() error {
		var err error
		out.PaymentsApproved, err = s.deps.Payments.SumByProjectAndStatus(readCtx(gctx), project.ID, types.PaymentStatusApproved)
		return err
	})
	g.Go(func() error {
		var err error
		out.PaymentsPaid, err = s.deps.Payments.SumByProjectAndStatus(readCtx(gctx), project.ID, types.PaymentStatusPaid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range milestones {
		out.ActualCostSum += m.ActualCost
		out.Milestones = append(out.Milestones, MilestoneFinancials{
			MilestoneID:  m.ID,
			Name:         m.Name,
			Status:       m.Status,
			BudgetedCost: m.BudgetedCost,
			ActualCost:   m.ActualCost,
			WeightPct:    m.WeightPct,
			DueDate:      m.DueDate,
		})
	}
	out.ActualCostSum = roundMoney(out.ActualCostSum)

	if out.BudgetTotal > 0 {
		out.BudgetUtilization = out.ActualCostSum / out.BudgetTotal
	}
	out.BudgetVariance = roundMoney(out.BudgetTotal - out.ActualCostSum)
	if out.ContractValue > 0 {
		out.ProfitMargin = (out.ContractValue - out.ActualCostSum) / out.ContractValue
	}
	out.ScheduleProgress = scheduleProgress(milestones)
	out.CheckpointPassRate = checkpointPassRate(out.CheckpointsByStatus)
	out.HealthScore = healthScore(healthInputs{
		budgetTotal:      out.BudgetTotal,
		actualCost:       out.ActualCostSum,
		openRisks:        out.OpenRisksBySeverity,
		checkpoints:      out.CheckpointsByStatus,
		scheduleProgress: out.ScheduleProgress,
		elapsedFraction:  elapsedFraction(project.StartDate, project.EndDate, time.Now()),
	})
	out.HealthLabel = healthLabel(out.HealthScore)
	return out, nil
}

// AuditRollups re-derives the persisted rollup columns from their source
// rows and counts mismatches. It repairs nothing; drift is surfaced for
// the backfill tooling.
func (s *rollupService) AuditRollups(ctx context.Context, limit int) (*RollupAuditResult, error) {
	start := time.Now()
	result := &RollupAuditResult{}

	projects, err := s.deps.Projects.ListForAudit(readCtx(ctx), limit)
	if err != nil {
		observability.Current().ObserveRollupAudit(time.Since(start), "error")
		return nil, err
	}
	var drifts []observability.RollupDriftMetric
	for _, project := range projects {
		result.ProjectsChecked++
		milestones, err := s.deps.Milestones.ListByProject(readCtx(ctx), project.ID)
		if err != nil {
			s.log.Warn("rollup audit: milestones load failed", "project_id", project.ID, "error", err)
			continue
		}
		var milestoneSum float64
		for _, m := range milestones {
			expected, err := s.deps.WeeklyUpdates.SumTotalByMilestone(readCtx(ctx), m.ID)
			if err != nil {
				continue
			}
			milestoneSum += expected
			if math.Abs(expected-m.ActualCost) > 0.01 {
				result.MilestoneDrift++
				drifts = append(drifts, observability.RollupDriftMetric{
					Entity:   "milestone",
					EntityID: m.ID.String(),
					Field:    "actual_cost",
					Stored:   m.ActualCost,
					Computed: expected,
					Drift:    expected - m.ActualCost,
				})
				s.log.Warn("milestone actual_cost drift",
					"milestone_id", m.ID, "stored", m.ActualCost, "derived", expected)
			}
		}
		expenses, err := s.deps.Expenses.SumByProject(readCtx(ctx), project.ID)
		if err != nil {
			continue
		}
		derivedSpent := roundMoney(milestoneSum + expenses)
		if math.Abs(derivedSpent-project.BudgetSpent) > 0.01 {
			result.ProjectDrift++
			drifts = append(drifts, observability.RollupDriftMetric{
				Entity:   "project",
				EntityID: project.ID.String(),
				Field:    "budget_spent",
				Stored:   project.BudgetSpent,
				Computed: derivedSpent,
				Drift:    derivedSpent - project.BudgetSpent,
			})
			s.log.Warn("project budget_spent drift",
				"project_id", project.ID, "stored", project.BudgetSpent, "derived", derivedSpent)
		}
	}

	observability.ReportRollupDrift(ctx, s.log, drifts, map[string]any{
		"projects_checked": result.ProjectsChecked,
	})
	observability.Current().ObserveRollupAudit(time.Since(start), "ok")
	s.log.Info("rollup audit finished", "projects", result.ProjectsChecked,
		"project_drift", result.ProjectDrift, "milestone_drift", result.MilestoneDrift)
	return result, nil
}

type healthInputs struct {
	budgetTotal      float64
	actualCost       float64
	openRisks        map[string]int
	checkpoints      map[string]int
	scheduleProgress float64
	elapsedFraction  float64
}

// healthScore starts at 100 and subtracts penalties for budget overrun,
// open high-severity risks, failed inspections, and schedule lag.
func healthScore(in healthInputs) float64 {
	score := 100.0

	if in.budgetTotal > 0 && in.actualCost > in.budgetTotal {
		overrun := (in.actualCost - in.budgetTotal) / in.budgetTotal
		score -= math.Min(30, overrun*100*0.5)
	}

	riskPenalty := float64(in.openRisks[types.RiskSeverityHigh])*4 +
		float64(in.openRisks[types.RiskSeverityCritical])*8
	score -= math.Min(25, riskPenalty)

	passed := in.checkpoints[types.CheckpointStatusPassed]
	failed := in.checkpoints[types.CheckpointStatusFailed]
	if inspected := passed + failed; inspected > 0 {
		passRate := float64(passed) / float64(inspected) * 100
		score -= (100 - passRate) * 0.15
	}

	if lag := in.elapsedFraction - in.scheduleProgress; lag > 0 {
		score -= math.Min(20, lag*100*0.4)
	}

	return math.Round(math.Max(0, math.Min(100, score))*10) / 10
}

func healthLabel(score float64) string {
	switch {
	case score >= 80:
		return "Healthy"
	case score >= 60:
		return "Watch"
	case score >= 40:
		return "At risk"
	default:
		return "Critical"
	}
}

// scheduleProgress is the weight fraction of completed milestones. When
// no weights were assigned it falls back to a plain completion ratio.
func scheduleProgress(milestones []*types.Milestone) float64 {
	if len(milestones) == 0 {
		return 0
	}
	var totalWeight, doneWeight float64
	var done int
	for _, m := range milestones {
		totalWeight += m.WeightPct
		if m.Status == types.MilestoneStatusCompleted {
			doneWeight += m.WeightPct
			done++
		}
	}
	if totalWeight > 0 {
		return doneWeight / totalWeight
	}
	return float64(done) / float64(len(milestones))
}

// elapsedFraction is how far through the project window now sits, in
// [0,1]. Without both dates there is no schedule to lag behind.
func elapsedFraction(start, end *time.Time, now time.Time) float64 {
	if start == nil || end == nil || !end.After(*start) {
		return 0
	}
	f := now.Sub(*start).Seconds() / end.Sub(*start).Seconds()
	return math.Max(0, math.Min(1, f))
}

func checkpointPassRate(counts map[string]int) float64 {
	passed := counts[types.CheckpointStatusPassed]
	failed := counts[types.CheckpointStatusFailed]
	if passed+failed == 0 {
		return 0
	}
	return float64(passed) / float64(passed+failed) * 100
}
