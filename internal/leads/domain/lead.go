// Package domain holds the lead engagement model and the pure
// classification rules shared by every view of the cockpit.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// CadenceStage is the ordered relationship-warmth tag on a lead, from
// first contact (G1) to close-ready (G5). An empty stage means the lead
// has not been staged yet and is treated as coldest.
type CadenceStage string

const (
	StageNone CadenceStage = ""
	StageG1   CadenceStage = "G1"
	StageG2   CadenceStage = "G2"
	StageG3   CadenceStage = "G3"
	StageG4   CadenceStage = "G4"
	StageG5   CadenceStage = "G5"
)

var knownCadenceStages = map[CadenceStage]struct{}{
	StageG1: {},
	StageG2: {},
	StageG3: {},
	StageG4: {},
	StageG5: {},
}

// IsKnownCadenceStage reports whether stage is one of G1..G5.
func IsKnownCadenceStage(stage CadenceStage) bool {
	_, ok := knownCadenceStages[stage]
	return ok
}

// ICPTier is the qualitative ideal-customer-profile fit of a lead.
type ICPTier string

const (
	TierA ICPTier = "A"
	TierB ICPTier = "B"
	TierC ICPTier = "C"
)

// Direction identifies who sent an interaction.
type Direction string

const (
	// DirectionOutbound means the message was sent by us.
	DirectionOutbound Direction = "outbound"
	// DirectionInbound means the message came from the lead.
	DirectionInbound Direction = "inbound"
	// DirectionUnknown means the lead has no interactions yet.
	DirectionUnknown Direction = ""
)

// StrategicAnnotations is the bundle of AI-derived fields written by the
// external drafting service in a single analysis pass. The bundle is
// all-or-none: a partially populated bundle is never exposed.
type StrategicAnnotations struct {
	LastSignal          string    `json:"lastSignal"`
	PsychFactor         string    `json:"psychFactor"`
	ForbiddenAction     string    `json:"forbiddenAction"`
	RecommendedStrategy string    `json:"recommendedStrategy"`
	SuggestedMessage    string    `json:"suggestedMessage"`
	AnalyzedAt          time.Time `json:"analyzedAt"`
}

// Lead is a snapshot of a prospect as stored in the record store.
type Lead struct {
	ID                       uuid.UUID             `json:"id"`
	FullName                 string                `json:"fullName"`
	Headline                 string                `json:"headline"`
	Company                  string                `json:"company"`
	AvatarURL                string                `json:"avatarUrl"`
	CadenceStage             CadenceStage          `json:"cadenceStage"`
	ICPTier                  ICPTier               `json:"icpTier"`
	TrustScore               int                   `json:"trustScore"`
	InteractionCount         int                   `json:"interactionCount"`
	LastInteractionAt        *time.Time            `json:"lastInteractionAt"`
	LastInteractionDirection Direction             `json:"lastInteractionDirection"`
	PipelineStatus           string                `json:"pipelineStatus"`
	Annotations              *StrategicAnnotations `json:"annotations,omitempty"`
	CreatedAt                time.Time             `json:"createdAt"`
	UpdatedAt                time.Time             `json:"updatedAt"`
}

// TaskStatus is the lifecycle state of an outreach task.
// PENDING transitions to COMPLETED exactly once; COMPLETED is terminal.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
)

// Task is an open outreach action for a lead. Its priority is derived
// from the lead at queue-build time and never persisted.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	Status      TaskStatus `json:"status"`
	Instruction string     `json:"instruction"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Lead is the joined lead snapshot carried with pending tasks so the
	// queue builder can classify without extra reads.
	Lead Lead `json:"lead"`
}

// Interaction is one append-only message row for a lead.
type Interaction struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"leadId"`
	Direction  Direction `json:"direction"`
	Content    string    `json:"content"`
	OccurredAt time.Time `json:"occurredAt"`
}
