package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Expense struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID     uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	MilestoneID   *uuid.UUID     `gorm:"type:uuid;index;column:milestone_id" json:"milestone_id,omitempty"`
	Category      string         `gorm:"not null;index;column:category" json:"category"`
	Description   string         `gorm:"column:description" json:"description"`
	Amount        float64        `gorm:"column:amount;not null" json:"amount"`
	SlipBucketKey string         `gorm:"column:slip_bucket_key" json:"slip_bucket_key"`
	SlipURL       string         `gorm:"column:slip_url" json:"slip_url"`
	IncurredOn    time.Time      `gorm:"not null;column:incurred_on" json:"incurred_on"`
	SubmittedBy   uuid.UUID      `gorm:"type:uuid;not null;column:submitted_by" json:"submitted_by"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Expense) TableName() string { return "expense" }
