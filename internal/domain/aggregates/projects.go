package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var ProjectsAggregateContract = Contract{
	Name:             "Projects.ProjectsAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the milestone actual-cost recompute, the expense/budget-spent pair, and change-order budget deltas.",
}

// ProjectsAggregate owns the financial write invariants of project
// tracking. The milestone actual_cost recompute runs inside the same
// transaction as the weekly update insert so the derived sum can never
// drift from its rows.
type ProjectsAggregate interface {
	Aggregate

	// CreateWeeklyUpdate inserts the update with total_expenditure =
	// labour+material+other and recomputes the parent milestone's
	// actual_cost in the same transaction.
	CreateWeeklyUpdate(ctx context.Context, in CreateWeeklyUpdateInput) (CreateWeeklyUpdateResult, error)

	// CreateExpense inserts the expense and increments the project's
	// budget_spent atomically.
	CreateExpense(ctx context.Context, in CreateExpenseInput) (CreateExpenseResult, error)

	// DecideChangeOrder approves or rejects a PROPOSED change order;
	// approval adds amount_delta to the project budget_total in the same
	// transaction as the status flip.
	DecideChangeOrder(ctx context.Context, in DecideChangeOrderInput) (DecideChangeOrderResult, error)
}

type CreateWeeklyUpdateInput struct {
	OrgID        uuid.UUID
	MilestoneID  uuid.UUID
	ActorID      uuid.UUID
	WeekStart    time.Time
	LabourCost   float64
	MaterialCost float64
	OtherCost    float64
	Notes        string
}

type CreateWeeklyUpdateResult struct {
	UpdateID            uuid.UUID
	MilestoneID         uuid.UUID
	TotalExpenditure    float64
	MilestoneActualCost float64
	RecordedAt          time.Time
}

type CreateExpenseInput struct {
	OrgID         uuid.UUID
	ProjectID     uuid.UUID
	MilestoneID   *uuid.UUID
	ActorID       uuid.UUID
	Category      string
	Description   string
	Amount        float64
	SlipBucketKey string
	SlipURL       string
	IncurredOn    time.Time
}

type CreateExpenseResult struct {
	ExpenseID          uuid.UUID
	ProjectID          uuid.UUID
	ProjectBudgetSpent float64
	RecordedAt         time.Time
}

type DecideChangeOrderInput struct {
	OrgID         uuid.UUID
	ChangeOrderID uuid.UUID
	ActorID       uuid.UUID
	Approve       bool
}

type DecideChangeOrderResult struct {
	ChangeOrderID      uuid.UUID
	ProjectID          uuid.UUID
	Status             string
	ProjectBudgetTotal float64
	DecidedAt          time.Time
}
