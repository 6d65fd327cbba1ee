package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type ParticipantRepo interface {
	Create(dbc dbctx.Context, participants []*types.ConversationParticipant) ([]*types.ConversationParticipant, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.ConversationParticipant, error)
	IsParticipant(dbc dbctx.Context, conversationID, userID uuid.UUID) (bool, error)
	UpdateLastReadAt(dbc dbctx.Context, conversationID, userID uuid.UUID) error
	SoftDeleteByConversationAndUser(dbc dbctx.Context, conversationID, userID uuid.UUID) error
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return &participantRepo{db: db, log: baseLog.With("repo", "ParticipantRepo")}
}

func (r *participantRepo) Create(dbc dbctx.Context, participants []*types.ConversationParticipant) ([]*types.ConversationParticipant, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(participants) == 0 {
		return []*types.ConversationParticipant{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.ConversationParticipant, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if conversationID == uuid.Nil {
		return []*types.ConversationParticipant{}, nil
	}
	var out []*types.ConversationParticipant
	if err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *participantRepo) IsParticipant(dbc dbctx.Context, conversationID, userID uuid.UUID) (bool, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if conversationID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *participantRepo) UpdateLastReadAt(dbc dbctx.Context, conversationID, userID uuid.UUID) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if conversationID == uuid.Nil || userID == uuid.Nil {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", gorm.Expr("NOW()")).Error
}

func (r *participantRepo) SoftDeleteByConversationAndUser(dbc dbctx.Context, conversationID, userID uuid.UUID) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if conversationID == uuid.Nil || userID == uuid.Nil {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&types.ConversationParticipant{}).Error
}
