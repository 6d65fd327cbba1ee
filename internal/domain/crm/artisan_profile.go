package crm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArtisanProfile is the org's directory entry for an ARTISAN user: the
// trade details and track record that feed payment review and AI ranking.
type ArtisanProfile struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	UserID          uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Specialty       string         `gorm:"not null;index;column:specialty" json:"specialty"`
	DailyRate       float64        `gorm:"column:daily_rate;not null;default:0" json:"daily_rate"`
	YearsExperience int            `gorm:"column:years_experience;not null;default:0" json:"years_experience"`
	Rating          float64        `gorm:"column:rating;not null;default:0" json:"rating"`
	JobsCompleted   int            `gorm:"column:jobs_completed;not null;default:0" json:"jobs_completed"`
	Bio             string         `gorm:"column:bio" json:"bio"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ArtisanProfile) TableName() string { return "artisan_profile" }
