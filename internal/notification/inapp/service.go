package inapp

import (
	"context"

	"prospect_backend/internal/notification/sse"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo *Repository
	sse  *sse.Service
	log  *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// SetSSE injects the SSE service (circular dependency avoidance).
func (s *Service) SetSSE(sseSvc *sse.Service) {
	s.sse = sseSvc
}

type SendParams struct {
	UserID     uuid.UUID
	Title      string
	Content    string
	ResourceID *uuid.UUID
	Category   string // "info", "success", "warning", "error"
}

// Send persists the notification and pushes it via SSE if the user is online.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if s == nil || s.repo == nil {
		return apperr.Internal("in-app notification service not configured")
	}

	if p.Category == "" {
		p.Category = "info"
	}

	notif, err := s.repo.Create(ctx, CreateParams{
		UserID:     p.UserID,
		Title:      p.Title,
		Content:    p.Content,
		ResourceID: p.ResourceID,
		Category:   p.Category,
	})
	if err != nil {
		if s.log != nil {
			s.log.DatabaseError("notification.create", err)
		}
		return err
	}

	if s.sse != nil {
		s.sse.Publish(p.UserID, sse.Event{
			Type:    sse.EventInAppNotification,
			Message: "New Notification",
			Data:    notif,
		})
	}

	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, pageSize, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
