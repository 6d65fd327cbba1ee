package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectStatusPlanning  = "PLANNING"
	ProjectStatusActive    = "ACTIVE"
	ProjectStatusOnHold    = "ON_HOLD"
	ProjectStatusCompleted = "COMPLETED"
	ProjectStatusArchived  = "ARCHIVED"
)

type Project struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	WorkOrderID   *uuid.UUID     `gorm:"type:uuid;index;column:work_order_id" json:"work_order_id,omitempty"`
	Name          string         `gorm:"not null;column:name" json:"name"`
	Description   string         `gorm:"column:description" json:"description"`
	PMID          uuid.UUID      `gorm:"type:uuid;not null;index;column:pm_id" json:"pm_id"`
	ContractorID  *uuid.UUID     `gorm:"type:uuid;index;column:contractor_id" json:"contractor_id,omitempty"`
	Status        string         `gorm:"not null;index;column:status" json:"status"`
	ContractValue float64        `gorm:"column:contract_value;not null;default:0" json:"contract_value"`
	BudgetTotal   float64        `gorm:"column:budget_total;not null;default:0" json:"budget_total"`
	BudgetSpent   float64        `gorm:"column:budget_spent;not null;default:0" json:"budget_spent"`
	Currency      string         `gorm:"not null;default:'USD';column:currency" json:"currency"`
	StartDate     *time.Time     `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate       *time.Time     `gorm:"column:end_date" json:"end_date,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "project" }
