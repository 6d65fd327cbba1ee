package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusTrialing  = "TRIALING"
	SubscriptionStatusActive    = "ACTIVE"
	SubscriptionStatusPastDue   = "PAST_DUE"
	SubscriptionStatusCancelled = "CANCELLED"
	SubscriptionStatusExpired   = "EXPIRED"
)

// Subscription is the org's billing state. Plan definitions live in the
// YAML catalog, not the database; PlanCode points into it.
type Subscription struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID             uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"org_id"`
	PlanCode          string         `gorm:"not null;index;column:plan_code" json:"plan_code"`
	Status            string         `gorm:"not null;index;column:status" json:"status"`
	Seats             int            `gorm:"column:seats;not null;default:1" json:"seats"`
	PeriodStart       time.Time      `gorm:"not null;column:period_start" json:"period_start"`
	PeriodEnd         time.Time      `gorm:"not null;index;column:period_end" json:"period_end"`
	CancelAtPeriodEnd bool           `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	TrialEndsAt       *time.Time     `gorm:"column:trial_ends_at" json:"trial_ends_at,omitempty"`
	LastSweptAt       *time.Time     `gorm:"column:last_swept_at" json:"last_swept_at,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Subscription) TableName() string { return "subscription" }
