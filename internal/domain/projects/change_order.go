package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChangeOrderStatusProposed = "PROPOSED"
	ChangeOrderStatusApproved = "APPROVED"
	ChangeOrderStatusRejected = "REJECTED"
)

type ChangeOrder struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Reason      string         `gorm:"column:reason" json:"reason"`
	AmountDelta float64        `gorm:"column:amount_delta;not null" json:"amount_delta"`
	Status      string         `gorm:"not null;index;column:status" json:"status"`
	ProposedBy  uuid.UUID      `gorm:"type:uuid;not null;column:proposed_by" json:"proposed_by"`
	DecidedBy   *uuid.UUID     `gorm:"type:uuid;column:decided_by" json:"decided_by,omitempty"`
	DecidedAt   *time.Time     `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChangeOrder) TableName() string { return "change_order" }
