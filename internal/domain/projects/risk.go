package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RiskSeverityLow      = "LOW"
	RiskSeverityMedium   = "MEDIUM"
	RiskSeverityHigh     = "HIGH"
	RiskSeverityCritical = "CRITICAL"

	RiskStatusOpen       = "OPEN"
	RiskStatusMitigating = "MITIGATING"
	RiskStatusClosed     = "CLOSED"
)

type ProjectRisk struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID  uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	Title      string         `gorm:"not null;column:title" json:"title"`
	Severity   string         `gorm:"not null;index;column:severity" json:"severity"`
	Likelihood int            `gorm:"column:likelihood;not null;default:1" json:"likelihood"`
	Impact     int            `gorm:"column:impact;not null;default:1" json:"impact"`
	Status     string         `gorm:"not null;index;column:status" json:"status"`
	Mitigation string         `gorm:"column:mitigation" json:"mitigation"`
	RaisedBy   uuid.UUID      `gorm:"type:uuid;not null;column:raised_by" json:"raised_by"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProjectRisk) TableName() string { return "project_risk" }
