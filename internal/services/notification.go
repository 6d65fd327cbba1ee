package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type NotifyInput struct {
	OrgID      uuid.UUID
	UserID     uuid.UUID
	Kind       string
	Title      string
	Body       string
	EntityKind string
	EntityID   *uuid.UUID
}

// NotificationService writes in-app notification rows and fans them out
// over SSE. Notify is fire-and-forget: it is always called after the
// primary mutation and never propagates its own failures.
type NotificationService interface {
	Notify(ctx context.Context, in NotifyInput)
	List(ctx context.Context, unreadOnly bool, limit int) ([]*types.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type notificationService struct {
	log      *logger.Logger
	repo     repos.NotificationRepo
	notifier Notifier
}

func NewNotificationService(log *logger.Logger, repo repos.NotificationRepo, notifier Notifier) NotificationService {
	return &notificationService{
		log:      log.With("service", "NotificationService"),
		repo:     repo,
		notifier: notifier,
	}
}

func (s *notificationService) Notify(ctx context.Context, in NotifyInput) {
	if in.UserID == uuid.Nil || in.OrgID == uuid.Nil || in.Kind == "" {
		return
	}
	row := &types.Notification{
		ID:         uuid.New(),
		OrgID:      in.OrgID,
		UserID:     in.UserID,
		Kind:       in.Kind,
		Title:      in.Title,
		Body:       in.Body,
		EntityKind: in.EntityKind,
		EntityID:   in.EntityID,
	}
	if _, err := s.repo.Create(readCtx(ctx), []*types.Notification{row}); err != nil {
		s.log.Warn("notification write failed (ignored)", "kind", in.Kind, "user_id", in.UserID, "error", err)
		return
	}
	observability.Current().IncNotification(in.Kind, "in_app")
	s.notifier.NotificationCreated(in.UserID, row)
}

func (s *notificationService) List(ctx context.Context, unreadOnly bool, limit int) ([]*types.Notification, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(readCtx(ctx), rd.UserID, unreadOnly, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context) (int64, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(readCtx(ctx), rd.UserID)
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(readCtx(ctx), id, rd.UserID)
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.MarkAllRead(readCtx(ctx), rd.UserID)
}
