package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MilestoneStatusPlanned    = "PLANNED"
	MilestoneStatusInProgress = "IN_PROGRESS"
	MilestoneStatusCompleted  = "COMPLETED"
)

// Milestone.ActualCost is derived: always the sum of the milestone's
// weekly budget updates' total_expenditure, recomputed inside the same
// transaction that inserts an update.
type Milestone struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	Project      *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Name         string         `gorm:"not null;column:name" json:"name"`
	Description  string         `gorm:"column:description" json:"description"`
	Status       string         `gorm:"not null;index;column:status" json:"status"`
	BudgetedCost float64        `gorm:"column:budgeted_cost;not null;default:0" json:"budgeted_cost"`
	ActualCost   float64        `gorm:"column:actual_cost;not null;default:0" json:"actual_cost"`
	WeightPct    float64        `gorm:"column:weight_pct;not null;default:0" json:"weight_pct"`
	StartDate    *time.Time     `gorm:"column:start_date" json:"start_date,omitempty"`
	DueDate      *time.Time     `gorm:"column:due_date" json:"due_date,omitempty"`
	CompletedAt  *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Milestone) TableName() string { return "milestone" }

type WeeklyBudgetUpdate struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID        uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	MilestoneID      uuid.UUID      `gorm:"type:uuid;not null;index;column:milestone_id" json:"milestone_id"`
	Milestone        *Milestone     `gorm:"constraint:OnDelete:CASCADE;foreignKey:MilestoneID;references:ID" json:"milestone,omitempty"`
	WeekStart        time.Time      `gorm:"not null;index;column:week_start" json:"week_start"`
	LabourCost       float64        `gorm:"column:labour_cost;not null;default:0" json:"labour_cost"`
	MaterialCost     float64        `gorm:"column:material_cost;not null;default:0" json:"material_cost"`
	OtherCost        float64        `gorm:"column:other_cost;not null;default:0" json:"other_cost"`
	TotalExpenditure float64        `gorm:"column:total_expenditure;not null;default:0" json:"total_expenditure"`
	Notes            string         `gorm:"column:notes" json:"notes"`
	SubmittedBy      uuid.UUID      `gorm:"type:uuid;not null;column:submitted_by" json:"submitted_by"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WeeklyBudgetUpdate) TableName() string { return "weekly_budget_update" }
