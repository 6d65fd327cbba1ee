package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, conversations []*types.Conversation) ([]*types.Conversation, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Conversation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	GetDirectBetween(dbc dbctx.Context, orgID, userA, userB uuid.UUID) (*types.Conversation, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, conversations []*types.Conversation) ([]*types.Conversation, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(conversations) == 0 {
		return []*types.Conversation{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Conversation, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Conversation
	if len(ids) == 0 {
		return out, nil
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns conversations the user participates in, most recently
// active first.
func (r *conversationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if userID == uuid.Nil {
		return []*types.Conversation{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Conversation
	if err := txx.WithContext(dbc.Ctx).
		Joins("JOIN conversation_participant cp ON cp.conversation_id = conversation.id").
		Where("cp.user_id = ? AND cp.deleted_at IS NULL", userID).
		Order("conversation.last_message_at DESC NULLS LAST").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetDirectBetween finds an existing two-person conversation for the pair, or
// nil when none exists. Used to keep direct chats singleton per pair.
func (r *conversationRepo) GetDirectBetween(dbc dbctx.Context, orgID, userA, userB uuid.UUID) (*types.Conversation, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if orgID == uuid.Nil || userA == uuid.Nil || userB == uuid.Nil {
		return nil, nil
	}
	var row types.Conversation
	err := txx.WithContext(dbc.Ctx).
		Where(`org_id = ? AND is_group = false AND id IN (
			SELECT a.conversation_id FROM conversation_participant a
			JOIN conversation_participant b ON b.conversation_id = a.conversation_id
			WHERE a.user_id = ? AND b.user_id = ?
			AND a.deleted_at IS NULL AND b.deleted_at IS NULL
		)`, orgID, userA, userB).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *conversationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *conversationRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Conversation{}).Error
}
