package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/realtime"
)

type ChatNotifier interface {
	MessageCreated(userID uuid.UUID, conversationID uuid.UUID, msg *types.Message)
	ConversationUpdated(userID uuid.UUID, conversation *types.Conversation)
}

type chatNotifier struct {
	emit SSEEmitter
}

func NewChatNotifier(emit SSEEmitter) ChatNotifier {
	return &chatNotifier{emit: emit}
}

func (n *chatNotifier) MessageCreated(userID uuid.UUID, conversationID uuid.UUID, msg *types.Message) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventChatMessage,
		Data: map[string]any{
			"conversation_id": conversationID,
			"message":         msg,
		},
	})
}

func (n *chatNotifier) ConversationUpdated(userID uuid.UUID, conversation *types.Conversation) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventConversationUpdated,
		Data:    map[string]any{"conversation": conversation},
	})
}
