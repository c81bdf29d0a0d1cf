package inapp

import (
	"context"
	"fmt"
	"time"

	"prospect_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "notification.inapp.repository.create"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"

	errRepoNotConfigured = "in-app notification repository not configured"
	errUserIDRequired    = "userId is required"
)

type Notification struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	ResourceID *uuid.UUID `json:"resourceId,omitempty"`
	Category   string     `json:"category"`
	IsRead     bool       `json:"isRead"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type CreateParams struct {
	UserID     uuid.UUID
	Title      string
	Content    string
	ResourceID *uuid.UUID
	Category   string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if r == nil || r.pool == nil {
		return Notification{}, apperr.Internal(errRepoNotConfigured).WithOp(opCreate)
	}
	if p.UserID == uuid.Nil {
		return Notification{}, apperr.Validation(errUserIDRequired).WithOp(opCreate)
	}
	if p.Title == "" || p.Content == "" {
		return Notification{}, apperr.Validation("title and content are required").WithOp(opCreate)
	}

	category := p.Category
	if category == "" {
		category = "info"
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO in_app_notifications
		(user_id, title, content, resource_id, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, content, resource_id, category, is_read, created_at
	`, p.UserID, p.Title, p.Content, p.ResourceID, category).Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &n.ResourceID, &n.Category, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return Notification{}, apperr.Internal(fmt.Sprintf("create in-app notification failed: %v", err)).WithOp(opCreate)
	}

	return n, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	if r == nil || r.pool == nil {
		return nil, 0, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}
	if userID == uuid.Nil {
		return nil, 0, apperr.Validation(errUserIDRequired).WithOp(opList)
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM in_app_notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count notifications failed: %v", err)).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, content, resource_id, category, is_read, created_at
		FROM in_app_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list notifications query failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.ResourceID, &n.Category, &n.IsRead, &n.CreatedAt); scanErr != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan notifications failed: %v", scanErr)).WithOp(opList)
		}
		items = append(items, n)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", rowsErr)).WithOp(opList)
	}

	return items, total, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if r == nil || r.pool == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opCountUnread)
	}
	if userID == uuid.Nil {
		return 0, apperr.Validation(errUserIDRequired).WithOp(opCountUnread)
	}

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM in_app_notifications
		WHERE user_id = $1 AND is_read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread notifications failed: %v", err)).WithOp(opCountUnread)
	}

	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkRead)
	}
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return apperr.Validation("userId and notificationId are required").WithOp(opMarkRead)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications
		SET is_read = TRUE, read_at = now()
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark notification read failed: %v", err)).WithOp(opMarkRead)
	}

	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkAllRead)
	}
	if userID == uuid.Nil {
		return apperr.Validation(errUserIDRequired).WithOp(opMarkAllRead)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications
		SET is_read = TRUE, read_at = now()
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark all notifications read failed: %v", err)).WithOp(opMarkAllRead)
	}

	return nil
}
