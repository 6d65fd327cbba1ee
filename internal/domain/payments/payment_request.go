package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusApproved = "APPROVED"
	PaymentStatusRejected = "REJECTED"
	PaymentStatusPaid     = "PAID"
)

// PaymentTransitionAllowed is the payment-request guard table:
// PENDING -> APPROVED -> PAID, PENDING -> REJECTED, PAID terminal.
func PaymentTransitionAllowed(from, to string) bool {
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusApproved || to == PaymentStatusRejected
	case PaymentStatusApproved:
		return to == PaymentStatusPaid
	default:
		return false
	}
}

type PaymentRequest struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	MilestoneID  *uuid.UUID     `gorm:"type:uuid;index;column:milestone_id" json:"milestone_id,omitempty"`
	ArtisanID    uuid.UUID      `gorm:"type:uuid;not null;index;column:artisan_id" json:"artisan_id"`
	Description  string         `gorm:"column:description" json:"description"`
	Amount       float64        `gorm:"column:amount;not null" json:"amount"`
	Currency     string         `gorm:"not null;default:'USD';column:currency" json:"currency"`
	Status       string         `gorm:"not null;index;column:status" json:"status"`
	RejectReason string         `gorm:"column:reject_reason" json:"reject_reason,omitempty"`
	ReviewedBy   *uuid.UUID     `gorm:"type:uuid;column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time     `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	PaidAt       *time.Time     `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PaymentRequest) TableName() string { return "payment_request" }

// Payslip rows are created in the same transaction that marks the
// payment request PAID; the unique index keeps the pair one-to-one.
type Payslip struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"org_id"`
	PaymentRequestID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null;column:payment_request_id" json:"payment_request_id"`
	PaymentRequest   *PaymentRequest `gorm:"constraint:OnDelete:CASCADE;foreignKey:PaymentRequestID;references:ID" json:"payment_request,omitempty"`
	ArtisanID        uuid.UUID       `gorm:"type:uuid;not null;index;column:artisan_id" json:"artisan_id"`
	PeriodStart      time.Time       `gorm:"not null;column:period_start" json:"period_start"`
	PeriodEnd        time.Time       `gorm:"not null;column:period_end" json:"period_end"`
	Gross            float64         `gorm:"column:gross;not null" json:"gross"`
	Deductions       float64         `gorm:"column:deductions;not null;default:0" json:"deductions"`
	Net              float64         `gorm:"column:net;not null" json:"net"`
	Reference        string          `gorm:"uniqueIndex;not null;column:reference" json:"reference"`
	SlipBucketKey    string          `gorm:"column:slip_bucket_key" json:"slip_bucket_key"`
	SlipURL          string          `gorm:"column:slip_url" json:"slip_url"`
	CreatedAt        time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Payslip) TableName() string { return "payslip" }
