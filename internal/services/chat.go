package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/gcp"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

const (
	attachmentUploadExpiry = 15 * time.Minute
	defaultMessagePageSize = 50
)

type CreateConversationInput struct {
	Topic          string      `json:"topic"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

type SendMessageInput struct {
	Body                string `json:"body"`
	AttachmentBucketKey string `json:"attachment_bucket_key"`
	AttachmentName      string `json:"attachment_name"`
}

type ConversationView struct {
	Conversation *types.Conversation              `json:"conversation"`
	Participants []*types.ConversationParticipant `json:"participants,omitempty"`
	UnreadCount  int64                            `json:"unread_count"`
}

type AttachmentUploadTicket struct {
	BucketKey string    `json:"bucket_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChatService is org-internal messaging. Direct conversations are
// deduplicated per user pair; group conversations carry a topic.
// Participation gates every read and write.
type ChatService interface {
	CreateConversation(ctx context.Context, in CreateConversationInput) (*types.Conversation, error)
	ListConversations(ctx context.Context, limit int) ([]*ConversationView, error)
	SendMessage(ctx context.Context, conversationID uuid.UUID, in SendMessageInput) (*types.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*types.Message, error)
	MarkRead(ctx context.Context, conversationID uuid.UUID) error
	LeaveConversation(ctx context.Context, conversationID uuid.UUID) error
	PresignAttachmentUpload(ctx context.Context, filename, contentType string) (*AttachmentUploadTicket, error)
	AttachmentDownloadURL(ctx context.Context, messageID uuid.UUID) (string, error)
}

type ChatServiceDeps struct {
	DB            *gorm.DB
	Conversations repos.ConversationRepo
	Participants  repos.ParticipantRepo
	Messages      repos.MessageRepo
	Users         repos.UserRepo
	Bucket        gcp.BucketService
	Notifications NotificationService
	Events        ChatNotifier
}

type chatService struct {
	log  *logger.Logger
	deps ChatServiceDeps
}

func NewChatService(log *logger.Logger, deps ChatServiceDeps) ChatService {
	return &chatService{log: log.With("service", "ChatService"), deps: deps}
}

// CreateConversation starts a conversation with the given org members.
// A two-person conversation without a topic reuses the existing direct
// thread between the pair when one exists.
func (s *chatService) CreateConversation(ctx context.Context, in CreateConversationInput) (*types.Conversation, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}

	// Deduplicate and drop the caller from the invite list.
	seen := map[uuid.UUID]bool{rd.UserID: true}
	others := make([]uuid.UUID, 0, len(in.ParticipantIDs))
	for _, id := range in.ParticipantIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		others = append(others, id)
	}
	if len(others) == 0 {
		return nil, validationErr("at least one other participant is required")
	}

	users, err := s.deps.Users.GetByIDs(readCtx(ctx), others)
	if err != nil {
		return nil, err
	}
	if len(users) != len(others) {
		return nil, validationErr("one or more participants do not exist")
	}
	for _, u := range users {
		if u.OrgID != rd.OrgID {
			return nil, validationErr("participants must belong to your organization")
		}
	}

	isGroup := len(others) > 1 || strings.TrimSpace(in.Topic) != ""
	if !isGroup {
		existing, err := s.deps.Conversations.GetDirectBetween(readCtx(ctx), rd.OrgID, rd.UserID, others[0])
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	conversation := &types.Conversation{
		OrgID:     rd.OrgID,
		Topic:     strings.TrimSpace(in.Topic),
		IsGroup:   isGroup,
		CreatedBy: rd.UserID,
	}
	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		created, err := s.deps.Conversations.Create(dbc, []*types.Conversation{conversation})
		if err != nil {
			return err
		}
		conversation = created[0]
		now := time.Now().UTC()
		members := make([]*types.ConversationParticipant, 0, len(others)+1)
		for _, id := range append([]uuid.UUID{rd.UserID}, others...) {
			members = append(members, &types.ConversationParticipant{
				ConversationID: conversation.ID,
				UserID:         id,
				JoinedAt:       now,
			})
		}
		_, err = s.deps.Participants.Create(dbc, members)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.deps.Events != nil {
		for _, id := range others {
			s.deps.Events.ConversationUpdated(id, conversation)
		}
	}
	s.log.Info("conversation created", "conversation_id", conversation.ID, "group", isGroup, "members", len(others)+1)
	return conversation, nil
}

// ListConversations returns the caller's threads, most recent activity
// first, each with its unread count.
func (s *chatService) ListConversations(ctx context.Context, limit int) ([]*ConversationView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	conversations, err := s.deps.Conversations.ListByUser(readCtx(ctx), rd.UserID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*ConversationView, 0, len(conversations))
	for _, c := range conversations {
		view := &ConversationView{Conversation: c}
		participants, err := s.deps.Participants.ListByConversation(readCtx(ctx), c.ID)
		if err == nil {
			view.Participants = participants
			for _, p := range participants {
				if p.UserID != rd.UserID {
					continue
				}
				since := p.JoinedAt
				if p.LastReadAt != nil {
					since = *p.LastReadAt
				}
				if n, err := s.deps.Messages.CountUnread(readCtx(ctx), c.ID, since); err == nil {
					view.UnreadCount = n
				}
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// SendMessage posts to a conversation the caller belongs to, bumps the
// thread's last activity, and fans out to the other participants.
func (s *chatService) SendMessage(ctx context.Context, conversationID uuid.UUID, in SendMessageInput) (*types.Message, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Body) == "" && in.AttachmentBucketKey == "" {
		return nil, validationErr("message body or attachment is required")
	}
	conversation, err := s.requireMembership(ctx, rd.OrgID, rd.UserID, conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	message := &types.Message{
		ConversationID:      conversationID,
		SenderID:            rd.UserID,
		Body:                in.Body,
		AttachmentBucketKey: in.AttachmentBucketKey,
		AttachmentName:      strings.TrimSpace(in.AttachmentName),
		SentAt:              now,
	}
	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		created, err := s.deps.Messages.Create(dbc, []*types.Message{message})
		if err != nil {
			return err
		}
		message = created[0]
		if err := s.deps.Conversations.UpdateFields(dbc, conversationID, map[string]interface{}{
			"last_message_at": now,
			"updated_at":      now,
		}); err != nil {
			return err
		}
		// The sender has read their own message.
		return s.deps.Participants.UpdateLastReadAt(dbc, conversationID, rd.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.fanOutMessage(ctx, rd, conversation, message)
	return message, nil
}

func (s *chatService) ListMessages(ctx context.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*types.Message, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMembership(ctx, rd.OrgID, rd.UserID, conversationID); err != nil {
		return nil, err
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	return s.deps.Messages.ListByConversation(readCtx(ctx), conversationID, before, limit)
}

func (s *chatService) MarkRead(ctx context.Context, conversationID uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if _, err := s.requireMembership(ctx, rd.OrgID, rd.UserID, conversationID); err != nil {
		return err
	}
	return s.deps.Participants.UpdateLastReadAt(readCtx(ctx), conversationID, rd.UserID)
}

func (s *chatService) LeaveConversation(ctx context.Context, conversationID uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	conversation, err := s.requireMembership(ctx, rd.OrgID, rd.UserID, conversationID)
	if err != nil {
		return err
	}
	if !conversation.IsGroup {
		return validationErr("direct conversations cannot be left")
	}
	return s.deps.Participants.SoftDeleteByConversationAndUser(readCtx(ctx), conversationID, rd.UserID)
}

// PresignAttachmentUpload hands the client a short-lived PUT URL for a
// chat attachment.
func (s *chatService) PresignAttachmentUpload(ctx context.Context, filename, contentType string) (*AttachmentUploadTicket, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" {
		return nil, validationErr("filename is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("chat/%s/%s-%s", rd.OrgID, uuid.New().String()[:8], sanitizeFilename(filename))
	url, err := s.deps.Bucket.GetSignedUploadURL(ctx, gcp.BucketCategoryAttachment, key, contentType, attachmentUploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign attachment upload: %w", err)
	}
	observability.Current().IncSignedURL(string(gcp.BucketCategoryAttachment), "upload")
	return &AttachmentUploadTicket{
		BucketKey: key,
		UploadURL: url,
		ExpiresAt: time.Now().Add(attachmentUploadExpiry),
	}, nil
}

func (s *chatService) AttachmentDownloadURL(ctx context.Context, messageID uuid.UUID) (string, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return "", err
	}
	messages, err := s.deps.Messages.GetByIDs(readCtx(ctx), []uuid.UUID{messageID})
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", notFoundErr("message", messageID)
	}
	if _, err := s.requireMembership(ctx, rd.OrgID, rd.UserID, messages[0].ConversationID); err != nil {
		return "", notFoundErr("message", messageID)
	}
	if messages[0].AttachmentBucketKey == "" {
		return "", notFoundErr("attachment", messageID)
	}
	url, err := s.deps.Bucket.GetSignedDownloadURL(ctx, gcp.BucketCategoryAttachment, messages[0].AttachmentBucketKey, time.Hour)
	if err != nil {
		return "", fmt.Errorf("sign attachment download: %w", err)
	}
	observability.Current().IncSignedURL(string(gcp.BucketCategoryAttachment), "download")
	return url, nil
}

// fanOutMessage pushes the realtime event and a notification row to
// every other participant. Best effort after commit.
func (s *chatService) fanOutMessage(ctx context.Context, rd *ctxutil.RequestData, conversation *types.Conversation, message *types.Message) {
	participants, err := s.deps.Participants.ListByConversation(readCtx(ctx), conversation.ID)
	if err != nil {
		s.log.Warn("could not load participants for fan-out", "conversation_id", conversation.ID, "error", err)
		return
	}
	preview := message.Body
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	if preview == "" && message.AttachmentName != "" {
		preview = "Attachment: " + message.AttachmentName
	}
	for _, p := range participants {
		if p.UserID == rd.UserID {
			continue
		}
		if s.deps.Events != nil {
			s.deps.Events.MessageCreated(p.UserID, conversation.ID, message)
		}
		if s.deps.Notifications != nil {
			s.deps.Notifications.Notify(ctx, NotifyInput{
				OrgID:      rd.OrgID,
				UserID:     p.UserID,
				Kind:       types.NotificationKindChatMessage,
				Title:      "New message",
				Body:       preview,
				EntityKind: "conversation",
				EntityID:   &conversation.ID,
			})
		}
	}
}

// requireMembership loads the conversation and proves the caller is an
// org member of the thread. Outsiders get not_found.
func (s *chatService) requireMembership(ctx context.Context, orgID, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	rows, err := s.deps.Conversations.GetByIDs(readCtx(ctx), []uuid.UUID{conversationID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("conversation", conversationID)
	}
	member, err := s.deps.Participants.IsParticipant(readCtx(ctx), conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, notFoundErr("conversation", conversationID)
	}
	return rows[0], nil
}
