package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// POST /api/chat/conversations
func (ch *ChatHandler) CreateConversation(c *gin.Context) {
	var req services.CreateConversationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	conv, err := ch.chatService.CreateConversation(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_conversation_failed")
		return
	}
	response.RespondCreated(c, gin.H{"conversation": conv})
}

// GET /api/chat/conversations?limit=50
func (ch *ChatHandler) ListConversations(c *gin.Context) {
	conversations, err := ch.chatService.ListConversations(c.Request.Context(), queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_conversations_failed")
		return
	}
	response.RespondOK(c, gin.H{"conversations": conversations})
}

// POST /api/chat/conversations/:id/messages
func (ch *ChatHandler) SendMessage(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	var req services.SendMessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	msg, err := ch.chatService.SendMessage(c.Request.Context(), conversationID, req)
	if err != nil {
		response.RespondAPIError(c, err, "send_message_failed")
		return
	}
	response.RespondCreated(c, gin.H{"message": msg})
}

// GET /api/chat/conversations/:id/messages?limit=50&before=RFC3339
func (ch *ChatHandler) ListMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	var before time.Time
	if v := strings.TrimSpace(c.Query("before")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_before", err)
			return
		}
		before = t
	}
	messages, err := ch.chatService.ListMessages(c.Request.Context(), conversationID, before, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_messages_failed")
		return
	}
	response.RespondOK(c, gin.H{"messages": messages})
}

// POST /api/chat/conversations/:id/read
func (ch *ChatHandler) MarkRead(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	if err := ch.chatService.MarkRead(c.Request.Context(), conversationID); err != nil {
		response.RespondAPIError(c, err, "mark_read_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/chat/conversations/:id/leave
func (ch *ChatHandler) LeaveConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	if err := ch.chatService.LeaveConversation(c.Request.Context(), conversationID); err != nil {
		response.RespondAPIError(c, err, "leave_conversation_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/chat/attachments/presign
func (ch *ChatHandler) PresignAttachment(c *gin.Context) {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ticket, err := ch.chatService.PresignAttachmentUpload(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		response.RespondAPIError(c, err, "presign_attachment_failed")
		return
	}
	response.RespondOK(c, ticket)
}

// GET /api/chat/messages/:id/attachment-url
func (ch *ChatHandler) AttachmentDownloadURL(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_message_id", err)
		return
	}
	url, err := ch.chatService.AttachmentDownloadURL(c.Request.Context(), messageID)
	if err != nil {
		response.RespondAPIError(c, err, "attachment_url_failed")
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}
