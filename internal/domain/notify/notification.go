package notify

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindOrderAssigned   = "ORDER_ASSIGNED"
	KindQuotationMoved  = "QUOTATION_MOVED"
	KindInvoiceDecision = "INVOICE_DECISION"
	KindPaymentDecision = "PAYMENT_DECISION"
	KindReportReady     = "REPORT_READY"
	KindChatMessage     = "CHAT_MESSAGE"
	KindSubscription    = "SUBSCRIPTION"
)

type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind       string         `gorm:"not null;index;column:kind" json:"kind"`
	Title      string         `gorm:"not null;column:title" json:"title"`
	Body       string         `gorm:"column:body" json:"body"`
	EntityKind string         `gorm:"column:entity_kind" json:"entity_kind,omitempty"`
	EntityID   *uuid.UUID     `gorm:"type:uuid;column:entity_id" json:"entity_id,omitempty"`
	ReadAt     *time.Time     `gorm:"index;column:read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Notification) TableName() string { return "notification" }
