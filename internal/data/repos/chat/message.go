package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, messages []*types.Message) ([]*types.Message, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Message, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*types.Message, error)
	CountUnread(dbc dbctx.Context, conversationID uuid.UUID, since time.Time) (int64, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, messages []*types.Message) ([]*types.Message, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(messages) == 0 {
		return []*types.Message{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Message, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
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

// ListByConversation pages backward through history. A zero before means
// "from the newest". Rows come back newest first.
func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*types.Message, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if conversationID == uuid.Nil {
		return []*types.Message{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", conversationID)
	if !before.IsZero() {
		q = q.Where("sent_at < ?", before)
	}
	var out []*types.Message
	if err := q.Order("sent_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) CountUnread(dbc dbctx.Context, conversationID uuid.UUID, since time.Time) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if conversationID == uuid.Nil {
		return 0, nil
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", conversationID)
	if !since.IsZero() {
		q = q.Where("sent_at > ?", since)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Message{}).Error
}
