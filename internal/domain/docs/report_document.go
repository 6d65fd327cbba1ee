package docs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocumentKindRFQ           = "rfq"
	DocumentKindProjectReport = "project_report"
	DocumentKindInvoice       = "invoice"
)

// ReportDocument tracks a rendered PDF stored in the report bucket.
type ReportDocument struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Kind        string         `gorm:"not null;index;column:kind" json:"kind"`
	EntityID    uuid.UUID      `gorm:"type:uuid;not null;index;column:entity_id" json:"entity_id"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	BucketKey   string         `gorm:"not null;column:bucket_key" json:"bucket_key"`
	URL         string         `gorm:"column:url" json:"url"`
	SizeBytes   int64          `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	ContentType string         `gorm:"not null;default:'application/pdf';column:content_type" json:"content_type"`
	GeneratedBy uuid.UUID      `gorm:"type:uuid;not null;column:generated_by" json:"generated_by"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReportDocument) TableName() string { return "report_document" }
