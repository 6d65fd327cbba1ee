package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusAccepted   = "ACCEPTED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusClosed     = "CLOSED"
	OrderStatusCancelled  = "CANCELLED"
)

// WorkOrder carries a uniqueIndex on rfq_id: an RFQ converts to at most
// one order, the application pre-check returns conflict and the index
// backstops racing conversions.
type WorkOrder struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID        uuid.UUID      `gorm:"type:uuid;not null;index;index:idx_work_order_org_number,unique" json:"org_id"`
	OrderNumber  string         `gorm:"not null;index:idx_work_order_org_number,unique;column:order_number" json:"order_number"`
	RFQID        *uuid.UUID     `gorm:"type:uuid;uniqueIndex;column:rfq_id" json:"rfq_id,omitempty"`
	QuotationID  *uuid.UUID     `gorm:"type:uuid;column:quotation_id" json:"quotation_id,omitempty"`
	Title        string         `gorm:"not null;column:title" json:"title"`
	Description  string         `gorm:"column:description" json:"description"`
	PMID         uuid.UUID      `gorm:"type:uuid;not null;index;column:pm_id" json:"pm_id"`
	ContractorID *uuid.UUID     `gorm:"type:uuid;index;column:contractor_id" json:"contractor_id,omitempty"`
	Amount       float64        `gorm:"column:amount;not null;default:0" json:"amount"`
	Currency     string         `gorm:"not null;default:'USD';column:currency" json:"currency"`
	Status       string         `gorm:"not null;index;column:status" json:"status"`
	StartDate    *time.Time     `gorm:"column:start_date" json:"start_date,omitempty"`
	DueDate      *time.Time     `gorm:"column:due_date" json:"due_date,omitempty"`
	CompletedAt  *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WorkOrder) TableName() string { return "work_order" }

// OrderTransitionAllowed is the status guard table for work orders.
func OrderTransitionAllowed(from, to string) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusAccepted || to == OrderStatusCancelled
	case OrderStatusAccepted:
		return to == OrderStatusInProgress || to == OrderStatusCancelled
	case OrderStatusInProgress:
		return to == OrderStatusCompleted
	case OrderStatusCompleted:
		return to == OrderStatusClosed
	default:
		return false
	}
}
