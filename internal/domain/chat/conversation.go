package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Topic         string         `gorm:"column:topic" json:"topic"`
	IsGroup       bool           `gorm:"not null;default:false;column:is_group" json:"is_group"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid;not null;column:created_by" json:"created_by"`
	LastMessageAt *time.Time     `gorm:"index;column:last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Conversation) TableName() string { return "conversation" }

type ConversationParticipant struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_conversation_participant,unique;column:conversation_id" json:"conversation_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index;index:idx_conversation_participant,unique;column:user_id" json:"user_id"`
	JoinedAt       time.Time      `gorm:"not null;default:now();column:joined_at" json:"joined_at"`
	LastReadAt     *time.Time     `gorm:"column:last_read_at" json:"last_read_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ConversationParticipant) TableName() string { return "conversation_participant" }

type Message struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID      uuid.UUID      `gorm:"type:uuid;not null;index;column:conversation_id" json:"conversation_id"`
	SenderID            uuid.UUID      `gorm:"type:uuid;not null;index;column:sender_id" json:"sender_id"`
	Body                string         `gorm:"column:body" json:"body"`
	AttachmentBucketKey string         `gorm:"column:attachment_bucket_key" json:"attachment_bucket_key,omitempty"`
	AttachmentName      string         `gorm:"column:attachment_name" json:"attachment_name,omitempty"`
	SentAt              time.Time      `gorm:"not null;default:now();index;column:sent_at" json:"sent_at"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Message) TableName() string { return "message" }
