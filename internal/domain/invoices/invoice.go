package invoices

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ContractorInvoiceStatusDraft = "DRAFT"
	ContractorInvoiceStatusSent  = "SENT"
	ContractorInvoiceStatusPaid  = "PAID"
	ContractorInvoiceStatusVoid  = "VOID"

	PMInvoiceStatusDraft      = "DRAFT"
	PMInvoiceStatusSentToPM   = "SENT_TO_PM"
	PMInvoiceStatusPMApproved = "PM_APPROVED"
	PMInvoiceStatusPMRejected = "PM_REJECTED"
	PMInvoiceStatusPaid       = "PAID"
)

// InvoiceLine is one row of an invoice's line-item JSON column.
type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	Amount      float64 `json:"amount"`
}

func EncodeLines(lines []InvoiceLine) datatypes.JSON {
	if len(lines) == 0 {
		return datatypes.JSON([]byte("[]"))
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

func DecodeLines(raw datatypes.JSON) []InvoiceLine {
	if len(raw) == 0 {
		return nil
	}
	var lines []InvoiceLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil
	}
	return lines
}

// ContractorInvoice bills a contractor's work back to the org. Its
// invoice_number shares one namespace with PropertyManagerInvoice.
type ContractorInvoice struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	InvoiceNumber string         `gorm:"uniqueIndex;not null;column:invoice_number" json:"invoice_number"`
	ProjectID     *uuid.UUID     `gorm:"type:uuid;index;column:project_id" json:"project_id,omitempty"`
	WorkOrderID   *uuid.UUID     `gorm:"type:uuid;index;column:work_order_id" json:"work_order_id,omitempty"`
	ContractorID  uuid.UUID      `gorm:"type:uuid;not null;index;column:contractor_id" json:"contractor_id"`
	Status        string         `gorm:"not null;index;column:status" json:"status"`
	Currency      string         `gorm:"not null;default:'USD';column:currency" json:"currency"`
	Amount        float64        `gorm:"column:amount;not null;default:0" json:"amount"`
	Tax           float64        `gorm:"column:tax;not null;default:0" json:"tax"`
	Total         float64        `gorm:"column:total;not null;default:0" json:"total"`
	Lines         datatypes.JSON `gorm:"column:lines;type:jsonb" json:"lines"`
	DueDate       *time.Time     `gorm:"column:due_date" json:"due_date,omitempty"`
	SentAt        *time.Time     `gorm:"column:sent_at" json:"sent_at,omitempty"`
	PaidAt        *time.Time     `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid;not null;column:created_by" json:"created_by"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContractorInvoice) TableName() string { return "contractor_invoice" }

// PropertyManagerInvoice is project billing surfaced to the PM for
// approval before payout.
type PropertyManagerInvoice struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	InvoiceNumber string         `gorm:"uniqueIndex;not null;column:invoice_number" json:"invoice_number"`
	ProjectID     uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	PMID          uuid.UUID      `gorm:"type:uuid;not null;index;column:pm_id" json:"pm_id"`
	ContractorID  uuid.UUID      `gorm:"type:uuid;not null;index;column:contractor_id" json:"contractor_id"`
	Status        string         `gorm:"not null;index;column:status" json:"status"`
	Currency      string         `gorm:"not null;default:'USD';column:currency" json:"currency"`
	Amount        float64        `gorm:"column:amount;not null;default:0" json:"amount"`
	Tax           float64        `gorm:"column:tax;not null;default:0" json:"tax"`
	Total         float64        `gorm:"column:total;not null;default:0" json:"total"`
	Lines         datatypes.JSON `gorm:"column:lines;type:jsonb" json:"lines"`
	RejectReason  string         `gorm:"column:reject_reason" json:"reject_reason,omitempty"`
	SentToPMAt    *time.Time     `gorm:"column:sent_to_pm_at" json:"sent_to_pm_at,omitempty"`
	DecidedAt     *time.Time     `gorm:"column:decided_at" json:"decided_at,omitempty"`
	PaidAt        *time.Time     `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid;not null;column:created_by" json:"created_by"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PropertyManagerInvoice) TableName() string { return "property_manager_invoice" }
