package ai

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CallStatusOK     = "ok"
	CallStatusFailed = "failed"

	KindDraftEmail   = "draft_email"
	KindRiskAnalysis = "risk_analysis"
	KindRankArtisans = "rank_artisans"
)

// AICallLog records every LLM call, success or not. Rows are written
// best-effort after the call returns.
type AICallLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind       string         `gorm:"not null;index;column:kind" json:"kind"`
	Model      string         `gorm:"column:model" json:"model"`
	Status     string         `gorm:"not null;index;column:status" json:"status"`
	ErrorCode  string         `gorm:"column:error_code" json:"error_code,omitempty"`
	DurationMS int64          `gorm:"column:duration_ms;not null;default:0" json:"duration_ms"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt  time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AICallLog) TableName() string { return "ai_call_log" }
