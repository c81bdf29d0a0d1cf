// Package transport holds the cockpit's HTTP request and response DTOs.
package transport

import (
	"time"

	"prospect_backend/internal/cockpit/queue"
	"prospect_backend/internal/cockpit/session"
	"prospect_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// TaskResponse is one pending task row inside a queue bucket. Priority
// is derived from the joined lead at response time, never persisted.
type TaskResponse struct {
	ID          uuid.UUID             `json:"id"`
	Instruction string                `json:"instruction"`
	CreatedAt   time.Time             `json:"createdAt"`
	Lead        LeadSummary           `json:"lead"`
	Priority    domain.PriorityBucket `json:"priority"`
}

// LeadSummary is the compact lead projection used in queue and radar rows.
type LeadSummary struct {
	ID                uuid.UUID           `json:"id"`
	FullName          string              `json:"fullName"`
	Headline          string              `json:"headline"`
	Company           string              `json:"company"`
	AvatarURL         string              `json:"avatarUrl"`
	CadenceStage      domain.CadenceStage `json:"cadenceStage"`
	ICPTier           domain.ICPTier      `json:"icpTier"`
	TrustScore        int                 `json:"trustScore"`
	PipelineStatus    string              `json:"pipelineStatus"`
	LastInteractionAt *time.Time          `json:"lastInteractionAt,omitempty"`
}

// BucketResponse is one cockpit column: the full ordered task list plus
// how many trailing entries the client folds behind the reveal toggle.
type BucketResponse struct {
	ID          domain.CadenceBucket `json:"bucketId"`
	Tasks       []TaskResponse       `json:"tasks"`
	Count       int                  `json:"count"`
	HiddenCount int                  `json:"hiddenCount"`
}

// QueueResponse is the full cockpit snapshot.
type QueueResponse struct {
	Buckets         []BucketResponse `json:"buckets"`
	DoneToday       int              `json:"doneToday"`
	PendingTotal    int              `json:"pendingTotal"`
	ProgressPercent int              `json:"progressPercent"`
	Stale           bool             `json:"stale"`
}

// CompleteTaskResponse reports the outcome of a completion attempt
// alongside the view the client should render next.
type CompleteTaskResponse struct {
	Outcome string        `json:"outcome"`
	View    QueueResponse `json:"view"`
}

// RadarEntryResponse is one lead on the inbox radar.
type RadarEntryResponse struct {
	Lead   LeadSummary           `json:"lead"`
	Bucket domain.PriorityBucket `json:"bucket"`
}

// RadarResponse is the classified inbox list, most recently active first.
type RadarResponse struct {
	Entries []RadarEntryResponse `json:"entries"`
}

// ChangeStatusRequest moves a lead to a new pipeline stage by display label.
type ChangeStatusRequest struct {
	Label string `json:"label" validate:"required,min=1,max=50"`
}

// ChangeStatusResponse echoes the applied status. Persisted is false
// when the write failed and the value is held optimistically.
type ChangeStatusResponse struct {
	StatusCode string `json:"statusCode"`
	Persisted  bool   `json:"persisted"`
}

// InteractionResponse is one message in a lead's history.
type InteractionResponse struct {
	ID         uuid.UUID        `json:"id"`
	Direction  domain.Direction `json:"direction"`
	Content    string           `json:"content"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// AnnotationsResponse is the AI annotation bundle, present all-or-none.
type AnnotationsResponse struct {
	LastSignal          string    `json:"lastSignal"`
	PsychFactor         string    `json:"psychFactor"`
	ForbiddenAction     string    `json:"forbiddenAction"`
	RecommendedStrategy string    `json:"recommendedStrategy"`
	SuggestedMessage    string    `json:"suggestedMessage"`
	AnalyzedAt          time.Time `json:"analyzedAt"`
}

// FocusResponse is the lead detail view: the full lead, its history,
// annotations when analyzed, and any draft held for this session.
type FocusResponse struct {
	Lead        LeadSummary           `json:"lead"`
	Annotations *AnnotationsResponse  `json:"annotations,omitempty"`
	History     []InteractionResponse `json:"history"`
	Draft       string                `json:"draft,omitempty"`
}

// ToLeadSummary maps a domain lead to its row projection.
func ToLeadSummary(lead domain.Lead) LeadSummary {
	return LeadSummary{
		ID:                lead.ID,
		FullName:          lead.FullName,
		Headline:          lead.Headline,
		Company:           lead.Company,
		AvatarURL:         lead.AvatarURL,
		CadenceStage:      lead.CadenceStage,
		ICPTier:           lead.ICPTier,
		TrustScore:        lead.TrustScore,
		PipelineStatus:    lead.PipelineStatus,
		LastInteractionAt: lead.LastInteractionAt,
	}
}

// ToAnnotationsResponse maps the annotation bundle, preserving absence.
func ToAnnotationsResponse(ann *domain.StrategicAnnotations) *AnnotationsResponse {
	if ann == nil {
		return nil
	}
	return &AnnotationsResponse{
		LastSignal:          ann.LastSignal,
		PsychFactor:         ann.PsychFactor,
		ForbiddenAction:     ann.ForbiddenAction,
		RecommendedStrategy: ann.RecommendedStrategy,
		SuggestedMessage:    ann.SuggestedMessage,
		AnalyzedAt:          ann.AnalyzedAt,
	}
}

// ToQueueResponse projects a session view into the wire shape. Every task
// travels, hidden cold ones included; hiddenCount tells the client how many
// trailing entries to fold behind the reveal toggle.
func ToQueueResponse(view session.View, now time.Time) QueueResponse {
	buckets := make([]BucketResponse, 0, len(view.Buckets))
	for _, bucket := range view.Buckets {
		tasks := make([]TaskResponse, 0, len(bucket.Tasks))
		for _, task := range bucket.Tasks {
			tasks = append(tasks, TaskResponse{
				ID:          task.ID,
				Instruction: task.Instruction,
				CreatedAt:   task.CreatedAt,
				Lead:        ToLeadSummary(task.Lead),
				Priority:    domain.PriorityBucketFor(task.Lead, now),
			})
		}
		buckets = append(buckets, BucketResponse{
			ID:          bucket.ID,
			Tasks:       tasks,
			Count:       bucket.Count,
			HiddenCount: bucket.HiddenCount,
		})
	}
	return QueueResponse{
		Buckets:         buckets,
		DoneToday:       view.DoneToday,
		PendingTotal:    view.PendingTotal,
		ProgressPercent: view.ProgressPercent(),
		Stale:           view.Stale,
	}
}

// ToRadarResponse projects classified radar entries into the wire shape.
func ToRadarResponse(entries []queue.RadarEntry) RadarResponse {
	out := make([]RadarEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, RadarEntryResponse{
			Lead:   ToLeadSummary(entry.Lead),
			Bucket: entry.Bucket,
		})
	}
	return RadarResponse{Entries: out}
}
