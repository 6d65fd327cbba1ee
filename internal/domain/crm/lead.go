package crm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LeadStatusNew       = "NEW"
	LeadStatusContacted = "CONTACTED"
	LeadStatusQualified = "QUALIFIED"
	LeadStatusConverted = "CONVERTED"
	LeadStatusLost      = "LOST"
)

type Lead struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	PropertyName    string         `gorm:"column:property_name" json:"property_name"`
	PropertyAddress string         `gorm:"column:property_address" json:"property_address"`
	ContactName     string         `gorm:"not null;column:contact_name" json:"contact_name"`
	ContactEmail    string         `gorm:"column:contact_email" json:"contact_email"`
	ContactPhone    string         `gorm:"column:contact_phone" json:"contact_phone"`
	Source          string         `gorm:"column:source" json:"source"`
	Status          string         `gorm:"not null;index;column:status" json:"status"`
	Notes           string         `gorm:"column:notes" json:"notes"`
	ConvertedRFQID  *uuid.UUID     `gorm:"type:uuid;uniqueIndex;column:converted_rfq_id" json:"converted_rfq_id,omitempty"`
	CreatedBy       uuid.UUID      `gorm:"type:uuid;not null;index;column:created_by" json:"created_by"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lead) TableName() string { return "lead" }
