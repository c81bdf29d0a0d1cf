package repository

import (
	"context"
	"errors"
	"time"

	"prospect_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListPendingTasks returns all PENDING tasks with their joined lead
// snapshots, oldest task first. Creation-time order is the queue
// builder's base ordering; ties fall back to id so reads are stable.
func (r *Repository) ListPendingTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.lead_id, t.status, t.instruction, t.created_at, t.completed_at,`+leadColumns+`
		FROM tasks t
		JOIN leads l ON l.id = t.lead_id
		WHERE t.status = 'PENDING'
		ORDER BY t.created_at ASC, t.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTaskWithLead(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTaskWithLead(rows pgx.Rows) (domain.Task, error) {
	var (
		task         domain.Task
		stage        *string
		direction    *string
		lastSignal   *string
		psychFactor  *string
		forbidden    *string
		strategy     *string
		suggestedMsg *string
		analyzedAt   *time.Time
	)

	err := rows.Scan(
		&task.ID, &task.LeadID, &task.Status, &task.Instruction, &task.CreatedAt, &task.CompletedAt,
		&task.Lead.ID, &task.Lead.FullName, &task.Lead.Headline, &task.Lead.Company, &task.Lead.AvatarURL,
		&stage, &task.Lead.ICPTier, &task.Lead.TrustScore, &task.Lead.InteractionCount,
		&task.Lead.LastInteractionAt, &direction, &task.Lead.PipelineStatus,
		&lastSignal, &psychFactor, &forbidden, &strategy,
		&suggestedMsg, &analyzedAt, &task.Lead.CreatedAt, &task.Lead.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}

	if stage != nil {
		task.Lead.CadenceStage = domain.CadenceStage(*stage)
	}
	if direction != nil {
		task.Lead.LastInteractionDirection = domain.Direction(*direction)
	}
	if lastSignal != nil && psychFactor != nil && forbidden != nil &&
		strategy != nil && suggestedMsg != nil && analyzedAt != nil {
		task.Lead.Annotations = &domain.StrategicAnnotations{
			LastSignal:          *lastSignal,
			PsychFactor:         *psychFactor,
			ForbiddenAction:     *forbidden,
			RecommendedStrategy: *strategy,
			SuggestedMessage:    *suggestedMsg,
			AnalyzedAt:          *analyzedAt,
		}
	}

	return task, nil
}

// CompleteTask transitions a task to COMPLETED. Completing an already
// completed task is a no-op success, so a confirmed write that raced a
// resync does not surface as an error.
func (r *Repository) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status = 'COMPLETED', completed_at = now()
		WHERE id = $1 AND status = 'PENDING'
	`, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status domain.TaskStatus
	err = r.pool.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1`, taskID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	if status == domain.TaskCompleted {
		return nil
	}
	return ErrTaskNotFound
}

// CountCompletedToday counts tasks completed since local midnight.
func (r *Repository) CountCompletedToday(ctx context.Context, now time.Time) (int, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM tasks
		WHERE status = 'COMPLETED' AND completed_at >= $1
	`, midnight).Scan(&count)
	return count, err
}

// CountPending counts open tasks.
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM tasks WHERE status = 'PENDING'
	`).Scan(&count)
	return count, err
}
