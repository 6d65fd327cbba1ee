package tenancy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name          string         `gorm:"not null;column:name" json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	LogoBucketKey string         `gorm:"column:logo_bucket_key" json:"logo_bucket_key"`
	LogoURL       string         `gorm:"column:logo_url" json:"logo_url"`
	AvatarColor   string         `gorm:"column:avatar_color" json:"avatar_color"`
	DeductionRate float64        `gorm:"column:deduction_rate;not null;default:0" json:"deduction_rate"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Organization) TableName() string { return "organization" }
