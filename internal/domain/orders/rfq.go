package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RFQStatusOpen      = "OPEN"
	RFQStatusQuoted    = "QUOTED"
	RFQStatusConverted = "CONVERTED"
	RFQStatusClosed    = "CLOSED"
)

type RFQ struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Title            string         `gorm:"not null;column:title" json:"title"`
	Description      string         `gorm:"column:description" json:"description"`
	PropertyAddress  string         `gorm:"column:property_address" json:"property_address"`
	Category         string         `gorm:"index;column:category" json:"category"`
	Deadline         *time.Time     `gorm:"column:deadline" json:"deadline,omitempty"`
	Status           string         `gorm:"not null;index;column:status" json:"status"`
	RaisedBy         uuid.UUID      `gorm:"type:uuid;not null;index;column:raised_by" json:"raised_by"`
	ConvertedOrderID *uuid.UUID     `gorm:"type:uuid;uniqueIndex;column:converted_order_id" json:"converted_order_id,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RFQ) TableName() string { return "rfq" }
