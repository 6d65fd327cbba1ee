package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuotationStatusDraft     = "DRAFT"
	QuotationStatusSubmitted = "SUBMITTED"
	QuotationStatusAccepted  = "ACCEPTED"
	QuotationStatusRejected  = "REJECTED"
	QuotationStatusWithdrawn = "WITHDRAWN"
)

type Quotation struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"org_id"`
	RFQID        uuid.UUID       `gorm:"type:uuid;not null;index;column:rfq_id" json:"rfq_id"`
	RFQ          *RFQ            `gorm:"constraint:OnDelete:CASCADE;foreignKey:RFQID;references:ID" json:"rfq,omitempty"`
	ContractorID uuid.UUID       `gorm:"type:uuid;not null;index;column:contractor_id" json:"contractor_id"`
	QuoteNumber  string          `gorm:"not null;column:quote_number" json:"quote_number"`
	Currency     string          `gorm:"not null;default:'USD';column:currency" json:"currency"`
	Subtotal     float64         `gorm:"column:subtotal;not null;default:0" json:"subtotal"`
	Tax          float64         `gorm:"column:tax;not null;default:0" json:"tax"`
	Total        float64         `gorm:"column:total;not null;default:0" json:"total"`
	Status       string          `gorm:"not null;index;column:status" json:"status"`
	ValidUntil   *time.Time      `gorm:"column:valid_until" json:"valid_until,omitempty"`
	Items        []QuotationItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuotationID;references:ID" json:"items,omitempty"`
	CreatedAt    time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quotation) TableName() string { return "quotation" }

type QuotationItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuotationID uuid.UUID `gorm:"type:uuid;not null;index;column:quotation_id" json:"quotation_id"`
	Description string    `gorm:"not null;column:description" json:"description"`
	Unit        string    `gorm:"column:unit" json:"unit"`
	Quantity    float64   `gorm:"column:quantity;not null;default:1" json:"quantity"`
	UnitCost    float64   `gorm:"column:unit_cost;not null;default:0" json:"unit_cost"`
	Amount      float64   `gorm:"column:amount;not null;default:0" json:"amount"`
	Position    int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuotationItem) TableName() string { return "quotation_item" }
