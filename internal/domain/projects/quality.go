package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CheckpointStatusPending = "PENDING"
	CheckpointStatusPassed  = "PASSED"
	CheckpointStatusFailed  = "FAILED"
)

type QualityCheckpoint struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	MilestoneID *uuid.UUID     `gorm:"type:uuid;index;column:milestone_id" json:"milestone_id,omitempty"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Status      string         `gorm:"not null;index;column:status" json:"status"`
	Score       *int           `gorm:"column:score" json:"score,omitempty"`
	InspectedBy *uuid.UUID     `gorm:"type:uuid;column:inspected_by" json:"inspected_by,omitempty"`
	InspectedAt *time.Time     `gorm:"column:inspected_at" json:"inspected_at,omitempty"`
	Notes       string         `gorm:"column:notes" json:"notes"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QualityCheckpoint) TableName() string { return "quality_checkpoint" }
