// Package repository provides pgx-backed access to the lead record store.
// The store itself (leads, tasks, interactions) is populated by upstream
// ingestion; this engine reads, reclassifies, and patches single fields.
package repository

import (
	"context"
	"errors"
	"time"

	"prospect_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	ErrTaskNotFound = errors.New("task not found")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	l.id, l.full_name, l.headline, l.company, l.avatar_url,
	l.cadence_stage, l.icp_tier, l.trust_score, l.interaction_count,
	l.last_interaction_at, l.last_interaction_direction, l.pipeline_status,
	l.last_signal, l.psych_factor, l.forbidden_action, l.recommended_strategy,
	l.suggested_message, l.analyzed_at, l.created_at, l.updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead         domain.Lead
		stage        *string
		direction    *string
		lastSignal   *string
		psychFactor  *string
		forbidden    *string
		strategy     *string
		suggestedMsg *string
		analyzedAt   *time.Time
	)

	err := row.Scan(
		&lead.ID, &lead.FullName, &lead.Headline, &lead.Company, &lead.AvatarURL,
		&stage, &lead.ICPTier, &lead.TrustScore, &lead.InteractionCount,
		&lead.LastInteractionAt, &direction, &lead.PipelineStatus,
		&lastSignal, &psychFactor, &forbidden, &strategy,
		&suggestedMsg, &analyzedAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	if stage != nil {
		lead.CadenceStage = domain.CadenceStage(*stage)
	}
	if direction != nil {
		lead.LastInteractionDirection = domain.Direction(*direction)
	}

	// The annotation bundle is written in one pass by the external
	// drafting service. Expose it only when every field is present so a
	// torn write never leaks into the view.
	if lastSignal != nil && psychFactor != nil && forbidden != nil &&
		strategy != nil && suggestedMsg != nil && analyzedAt != nil {
		lead.Annotations = &domain.StrategicAnnotations{
			LastSignal:          *lastSignal,
			PsychFactor:         *psychFactor,
			ForbiddenAction:     *forbidden,
			RecommendedStrategy: *strategy,
			SuggestedMessage:    *suggestedMsg,
			AnalyzedAt:          *analyzedAt,
		}
	}

	return lead, nil
}

// GetByID returns a single lead snapshot, annotation bundle included.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+leadColumns+`
		FROM leads l
		WHERE l.id = $1
	`, id)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrLeadNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// ListLeads returns all leads ordered by most recent activity, the order
// the radar view wants. Leads without interactions sort last.
func (r *Repository) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+leadColumns+`
		FROM leads l
		ORDER BY l.last_interaction_at DESC NULLS LAST, l.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdatePipelineStatus patches the single status field on a lead.
func (r *Repository) UpdatePipelineStatus(ctx context.Context, id uuid.UUID, statusCode string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET pipeline_status = $2, updated_at = now()
		WHERE id = $1
	`, id, statusCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// ReadAnnotations re-reads the annotation bundle for a lead. Returns nil
// when the lead has not been analyzed (or the bundle is incomplete).
func (r *Repository) ReadAnnotations(ctx context.Context, id uuid.UUID) (*domain.StrategicAnnotations, error) {
	lead, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return lead.Annotations, nil
}

// ListInteractions returns a lead's interactions in chronological order.
func (r *Repository) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, direction, content, occurred_at
		FROM interactions
		WHERE lead_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Interaction, 0)
	for rows.Next() {
		var item domain.Interaction
		if err := rows.Scan(&item.ID, &item.LeadID, &item.Direction, &item.Content, &item.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
